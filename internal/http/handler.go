package http

import (
	"context"
	"errors"
	"fmt"
	gohttp "net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/gd-exchange/internal/aggregator"
	"github.com/hxuan190/gd-exchange/internal/config"
	"github.com/hxuan190/gd-exchange/internal/http/httputil"
	"github.com/hxuan190/gd-exchange/internal/http/middlewares"
)

const (
	API_VERSION  = "v1"
	HTTP_SERVICE = "http-service"
)

type HTTPService struct {
	container.BaseDIInstance

	aggregatorSvc *aggregator.Service
	rateLimiter   *middlewares.RateLimiter
	server        *gohttp.Server
	conf          *config.GeneralConfig

	handlers []httputil.IHttpHandler
}

func (svc *HTTPService) ID() string {
	return HTTP_SERVICE
}

// Router builds the gin engine with every handler mounted.
func (svc *HTTPService) Router() *gin.Engine {
	if svc.conf.Env == config.ProdEnv {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	corsConf := cors.DefaultConfig()
	corsConf.AllowAllOrigins = true
	corsConf.AddAllowHeaders("Authorization", middlewares.AdminKeyHeader)
	r.Use(cors.New(corsConf))

	r.Use(middlewares.MetricsMiddleware("/metrics"))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(gohttp.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("api")
	api.Use(svc.rateLimiter.RateLimitMiddleware())
	pub := api.Group(API_VERSION)

	admin := api.Group(fmt.Sprintf("%s/admin", API_VERSION))
	admin.Use(middlewares.AdminAuth(svc.conf.AdminAPIKey))

	svc.setupHandlers(pub, admin)
	return r
}

func (svc *HTTPService) Start() error {
	svc.server = &gohttp.Server{
		Addr:              svc.conf.HTTPHost + ":" + svc.conf.HTTPPort,
		Handler:           svc.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Str("host", svc.conf.HTTPHost).Str("port", svc.conf.HTTPPort).Msg("http server started")

	if err := svc.server.ListenAndServe(); err != nil && !errors.Is(err, gohttp.ErrServerClosed) {
		return err
	}

	return nil
}

func (svc *HTTPService) Configure(c container.IContainer) error {
	svc.conf = c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig)
	if svc.conf == nil {
		return errors.New("invalid server config")
	}

	svc.aggregatorSvc = c.Instance(aggregator.AGGREGATOR_SERVICE).(*aggregator.Service)
	svc.rateLimiter = middlewares.NewRateLimiter(svc.conf.RateLimitPerSecond, svc.conf.RateLimitBurst)

	svc.handlers = []httputil.IHttpHandler{
		NewSellHandler(svc.aggregatorSvc),
		NewPairHandler(svc.aggregatorSvc),
	}
	return nil
}

func (svc *HTTPService) Stop() error {
	if svc.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := svc.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to stop http server")
		return err
	}
	log.Info().Msg("http server stopped gracefully")
	return nil
}

func (svc *HTTPService) setupHandlers(rootPub, rootAdmin *gin.RouterGroup) {
	for _, h := range svc.handlers {
		h.SetRoutes(rootPub.Group(h.Root()), rootAdmin.Group(h.Root()))
	}
}
