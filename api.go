package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/feather-classroom/feather/broadcast"
	"github.com/feather-classroom/feather/config"
	"github.com/feather-classroom/feather/event"
	"github.com/feather-classroom/feather/feather"
	"github.com/feather-classroom/feather/handlers"
	"github.com/feather-classroom/feather/scheduler"
	"github.com/feather-classroom/feather/scheduler/task"
	"github.com/feather-classroom/feather/storage"
)

func main() {
	config.ParseFlags()

	e := initEvent()
	s := initStorage()
	h := broadcast.NewHub()

	core := feather.NewFeather(s, e)

	tasks := []scheduler.Task{
		task.NewCheckPresence(core),
		task.NewCollectStats(e, core),
	}
	sch, err := scheduler.NewScheduler(tasks, s, e, core)
	if err != nil {
		log.Fatal("Error initializing the scheduler: ", err)
	}

	if err := sch.Start(); err != nil {
		log.Fatal("Error starting the scheduler: ", err)
	}

	handlers.Bootstrap(core, e, h)
	handlers.Register(nil)
}

func initStorage() storage.StorageApi {
	switch config.StorageDriver {
	case "postgres":
		s, err := storage.NewPostgresStorage(config.DatabaseURL)
		if err != nil {
			log.Fatal("Error initializing StorageAPI: ", err)
		}
		return s
	case "file":
		s, err := storage.NewFileStorage(config.SessionsFile)
		if err != nil {
			log.Fatal("Error initializing StorageAPI: ", err)
		}
		return s
	default:
		log.Fatalf("Unknown storage driver %q", config.StorageDriver)
		return nil
	}
}

func initEvent() event.EventApi {
	return event.NewLocalBroker()
}
