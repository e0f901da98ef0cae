package handlers

import (
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/load"
	log "github.com/sirupsen/logrus"

	"github.com/feather-classroom/feather/config"
)

func Ping(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("ping", time.Now())
	// Get system load average of the last 5 minutes and compare it against a threshold.

	a, err := load.Avg()
	if err != nil {
		log.Println("Cannot get system load average!", err)
	} else {
		if a.Load5 > config.MaxLoadAvg {
			log.Printf("System load average is too high [%f]\n", a.Load5)
			rw.WriteHeader(http.StatusInsufficientStorage)
		}
	}
}
