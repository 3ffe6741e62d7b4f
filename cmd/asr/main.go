package main

import (
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	asr "github.com/DeNoronha/ctn-asr-demo-sub015"
	"github.com/DeNoronha/ctn-asr-demo-sub015/cmd/asr/config"
	"github.com/DeNoronha/ctn-asr-demo-sub015/internal/logger"
	"github.com/DeNoronha/ctn-asr-demo-sub015/internal/version"
)

func main() {
	var configFile string
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}
	config.Load(configFile)
	c := config.Get()
	logger.Init(c.Logging.Access, c.Logging.Internal)
	log.WithField("version", version.VERSION).Info("Loaded Config")

	signer, err := initSigner(c.Signing)
	if err != nil {
		log.WithError(err).Fatal("could not init signing key")
	}
	log.Info("Loaded signing key")

	backs, err := config.LoadStorageBackends(c.Storage, c.API.Admin.Argon2idParams)
	if err != nil {
		log.Fatal(err)
	}

	var limiter asr.RateLimiter
	if redisAddr := c.Caching.RedisAddr; redisAddr != "" {
		rdb := redis.NewClient(
			&redis.Options{
				Addr:     redisAddr,
				Username: c.Caching.Username,
				Password: c.Caching.Password,
				DB:       c.Caching.RedisDB,
			},
		)
		limiter = asr.NewRedisRateLimiter(rdb, nil)
		log.Info("Loaded Redis rate limiting")
	}

	var geo asr.CountryResolver
	if c.Geo.MMDBPath != "" {
		resolver, err := asr.OpenGeoIP(c.Geo.MMDBPath)
		if err != nil {
			log.WithError(err).Fatal("could not open geo database")
		}
		defer func() {
			_ = resolver.Close()
		}()
		geo = resolver
		log.Info("Loaded geo database")
	}

	registry, err := asr.NewRegistry(
		c.Server, c.Registry.IssuerID, signer, backs, limiter, geo, nil,
	)
	if err != nil {
		log.Fatal(err)
	}
	log.Info("Initialized Registry")

	registry.AddIssuanceEndpoints(c.Endpoints.Issuance)
	registry.AddValidationEndpoint(c.Endpoints.Validation)
	registry.AddUsageEndpoint(c.Endpoints.Usage)
	registry.AddJWKSEndpoint(c.Endpoints.JWKS)
	registry.AddLookupEndpoints(c.Endpoints.TokenStatus, c.Endpoints.EntityStatus)
	log.Info("Added Endpoints")

	if c.Sweep.Enabled {
		go runSweep(registry, c.Sweep.Interval.Duration())
	}

	registry.Start()
}

func runSweep(registry *asr.Registry, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		report := registry.Sweeper.Run()
		log.WithFields(
			log.Fields{
				"checked":    report.Checked,
				"downgraded": report.Downgraded,
				"failed":     report.Failed,
			},
		).Info("reverification sweep completed")
	}
}
