package handlers

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/acme/autocert"

	gh "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/negroni"

	"github.com/feather-classroom/feather/broadcast"
	"github.com/feather-classroom/feather/config"
	"github.com/feather-classroom/feather/event"
	"github.com/feather-classroom/feather/feather"
)

var (
	core feather.FeatherApi
	e    event.EventApi
	hub  broadcast.HubApi
)

var latencyHistogramVec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "feather_handlers_duration_ms",
	Help:    "How long it took to process a specific handler, in a specific host",
	Buckets: []float64{10, 50, 300, 1200, 5000},
}, []string{"action"})

type HandlerExtender func(h *mux.Router)

func init() {
	prometheus.MustRegister(latencyHistogramVec)
}

func observeHandler(action string, start time.Time) {
	latencyHistogramVec.WithLabelValues(action).Observe(float64(time.Since(start).Nanoseconds()) / 1000000)
}

func Bootstrap(c feather.FeatherApi, ev event.EventApi, h broadcast.HubApi) {
	core = c
	e = ev
	hub = h
	BridgeEvents(ev, h)
}

func allowedOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range config.AllowedOrigins {
		if allowed != "" && (u.Hostname() == allowed || strings.HasSuffix(u.Hostname(), "."+allowed)) {
			return true
		}
	}
	return false
}

// NewRouter builds the whole http handler chain.
func NewRouter(extend HandlerExtender) http.Handler {
	r := mux.NewRouter()
	corsRouter := mux.NewRouter()

	corsHandler := gh.CORS(gh.AllowCredentials(), gh.AllowedHeaders([]string{"x-requested-with", "content-type", "authorization", clientHeader, teacherTokenHeader}), gh.AllowedMethods([]string{"GET", "POST", "PUT", "HEAD", "DELETE"}), gh.AllowedOriginValidator(allowedOrigin), gh.AllowedOrigins([]string{}))

	sessionPath := "/sessions/{sessionId:" + config.IdRegex + "}"

	// Specific routes
	r.HandleFunc("/ping", Ping).Methods("GET")
	r.Handle("/metrics", promhttp.Handler())

	corsRouter.HandleFunc("/sessions", NewSession).Methods("POST")
	corsRouter.HandleFunc("/sessions", ListSessions).Methods("GET")
	corsRouter.HandleFunc(sessionPath, GetSession).Methods("GET")
	corsRouter.HandleFunc("/codes/{code:"+config.RoomCodeRegex+"}", GetSessionByCode).Methods("GET")
	corsRouter.HandleFunc(sessionPath+"/start", StartSession).Methods("POST")
	corsRouter.HandleFunc(sessionPath+"/end", CloseSession).Methods("POST")
	corsRouter.HandleFunc(sessionPath, DeleteSession).Methods("DELETE")

	corsRouter.HandleFunc(sessionPath+"/participants", JoinSession).Methods("POST")
	corsRouter.HandleFunc(sessionPath+"/participants", ListParticipants).Methods("GET")
	corsRouter.HandleFunc(sessionPath+"/participants/{clientId}", LeaveSession).Methods("DELETE")

	corsRouter.HandleFunc(sessionPath+"/questions", PushQuestion).Methods("POST")
	corsRouter.HandleFunc(sessionPath+"/questions", ListQuestions).Methods("GET")
	corsRouter.HandleFunc(sessionPath+"/questions/{questionId}/work", ListWork).Methods("GET")
	corsRouter.HandleFunc(sessionPath+"/questions/{questionId}/work/{studentId}", GetWork).Methods("GET")
	corsRouter.HandleFunc(sessionPath+"/questions/{questionId}/work/{studentId}", PutWork).Methods("PUT")
	corsRouter.HandleFunc(sessionPath+"/questions/{questionId}/annotations/{studentId}", GetAnnotation).Methods("GET")
	corsRouter.HandleFunc(sessionPath+"/questions/{questionId}/annotations/{studentId}", PutAnnotation).Methods("PUT")

	corsRouter.HandleFunc(sessionPath+"/state", GetState).Methods("GET")
	corsRouter.HandleFunc(sessionPath+"/images", FileUpload).Methods("POST")
	corsRouter.HandleFunc("/images/{imageId:"+config.IdRegex+"}", GetImage).Methods("GET")
	corsRouter.HandleFunc(sessionPath+"/qr.png", JoinQRCode).Methods("GET")
	corsRouter.HandleFunc(sessionPath+"/ws/", WSH)

	corsRouter.HandleFunc("/users/me", LoggedInUser).Methods("GET")

	if extend != nil {
		extend(corsRouter)
	}

	n := negroni.Classic()

	r.PathPrefix("/").Handler(negroni.New(negroni.Wrap(corsHandler(corsRouter))))
	n.UseHandler(r)

	return n
}

func Register(extend HandlerExtender) {
	httpServer := http.Server{
		Addr:              "0.0.0.0:" + config.PortNumber,
		Handler:           NewRouter(extend),
		IdleTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if config.UseLetsEncrypt {
		domainCache, err := lru.New(5000)
		if err != nil {
			log.Fatalf("Could not start domain cache. Got: %v", err)
		}
		public, err := url.Parse(config.PublicURL)
		if err != nil {
			log.Fatalf("Invalid public url %s. Got: %v", config.PublicURL, err)
		}
		certManager := autocert.Manager{
			Prompt: autocert.AcceptTOS,
			HostPolicy: func(ctx context.Context, host string) error {
				if _, found := domainCache.Get(host); !found {
					if host != public.Hostname() {
						return fmt.Errorf("Host %s is not served here", host)
					}
					domainCache.Add(host, true)
				}
				return nil
			},
			Cache: autocert.DirCache(config.LetsEncryptCertsDir),
		}

		httpServer.TLSConfig = &tls.Config{
			GetCertificate: certManager.GetCertificate,
		}

		go func() {
			rr := mux.NewRouter()
			rr.HandleFunc("/ping", Ping).Methods("GET")
			rr.Handle("/metrics", promhttp.Handler())
			rr.PathPrefix("/").HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
				target := fmt.Sprintf("https://%s%s", r.Host, r.URL.Path)
				if len(r.URL.RawQuery) > 0 {
					target += "?" + r.URL.RawQuery
				}
				http.Redirect(rw, r, target, http.StatusMovedPermanently)
			})
			nr := negroni.Classic()
			nr.UseHandler(rr)
			log.Println("Starting redirect server")
			redirectServer := http.Server{
				Addr:              "0.0.0.0:80",
				Handler:           certManager.HTTPHandler(nr),
				IdleTimeout:       30 * time.Second,
				ReadHeaderTimeout: 5 * time.Second,
			}
			log.Fatal(redirectServer.ListenAndServe())
		}()

		log.Println("Listening on port " + config.PortNumber)
		log.Fatal(httpServer.ListenAndServeTLS("", ""))
	} else {
		log.Println("Listening on port " + config.PortNumber)
		log.Fatal(httpServer.ListenAndServe())
	}
}
