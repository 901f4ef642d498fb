package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/asaskevich/EventBus"
	"github.com/crewmark/recruiter/internal/clients/sms"
	"github.com/crewmark/recruiter/internal/clients/telegram"
	"github.com/crewmark/recruiter/internal/config"
	"github.com/crewmark/recruiter/internal/events"
	"github.com/crewmark/recruiter/internal/logger"
	"github.com/crewmark/recruiter/internal/metrics"
	"github.com/crewmark/recruiter/internal/repositories"
	"github.com/crewmark/recruiter/internal/scheduler"
	"github.com/crewmark/recruiter/internal/services"
	log "github.com/sirupsen/logrus"
)

func runEngine(cfg *config.Config, dbContext *repositories.DbContext,
	bus EventBus.Bus) (*services.Discovery, *scheduler.Scheduler) {

	shifts := repositories.NewShiftsRepository(dbContext.DB)
	workers := repositories.NewWorkersRepository(dbContext.DB)
	assignments := repositories.NewAssignmentsRepository(dbContext.DB)
	activities := repositories.NewActivitiesRepository(dbContext.DB)
	blockLists := repositories.NewCachedBlockLists(repositories.NewBlockListsRepository(dbContext.DB))

	gateway := sms.NewClient()
	gateway.SetRateLimit(cfg.Engine.SmsMaxRequestsPerSecond)

	timeouts := scheduler.New()

	eligibility := services.NewEligibilityFilter(workers, blockLists, assignments,
		cfg.Engine.MaxRadiusMiles)

	dispatcher, err := services.NewDispatcher(shifts, assignments, workers, activities,
		eligibility, gateway, timeouts, bus, cfg.Engine.OfferTimeout, cfg.Engine.CandidateLogDepth)
	if err != nil {
		log.Fatalf("can't create dispatcher: %v", err)
	}

	if _, err = services.NewResumeCoordinator(shifts, activities, dispatcher, bus,
		cfg.Engine.ResumeCutoffHours); err != nil {
		log.Fatalf("can't create resume coordinator: %v", err)
	}

	discovery, err := services.NewDiscovery(shifts, activities, dispatcher,
		cfg.Engine.DiscoveryInterval, cfg.Engine.DiscoveryWindowDays)
	if err != nil {
		log.Fatalf("can't create discovery scanner: %v", err)
	}

	return discovery, timeouts
}

func runNotifier(cfg *config.Config, bus EventBus.Bus) {

	if !cfg.Notifier.Enabled() {
		log.Info("admin notifier disabled, no telegram token configured")
		return
	}

	notifier, err := telegram.NewNotifier(cfg.Notifier.TelegramToken, cfg.Notifier.TelegramChatID)
	if err != nil {
		log.Fatalf("can't create admin notifier: %v", err)
	}

	// Async so a slow telegram call never blocks the publishing engine.
	if err = bus.SubscribeAsync(events.RecruitingPausedTopic, notifier.OnRecruitingPaused, false); err != nil {
		log.Fatalf("can't subscribe notifier: %v", err)
	}
	if err = bus.SubscribeAsync(events.RecruitingResumedTopic, notifier.OnRecruitingResumed, false); err != nil {
		log.Fatalf("can't subscribe notifier: %v", err)
	}
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	metrics.StartMetricsServer()

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	err = dbContext.Migrate()
	if err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	bus := EventBus.New()

	runNotifier(cfg, bus)
	discovery, timeouts := runEngine(cfg, dbContext, bus)

	<-ctx.Done()

	log.Info("Shutting down services...")
	discovery.Stop()
	timeouts.Stop()
	log.Info("Services stopped.")
}
