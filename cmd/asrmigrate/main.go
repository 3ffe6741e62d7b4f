package main

import (
	"flag"
	"fmt"
	"os"
	"slices"

	log "github.com/sirupsen/logrus"

	"github.com/DeNoronha/ctn-asr-demo-sub015/cmd/asr/config"
	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, "asrmigrate: migrate legacy registry data to the database backend\n")
	_, _ = fmt.Fprintf(os.Stderr, "\n")
	_, _ = fmt.Fprintf(os.Stderr, "Subcommands:\n")
	_, _ = fmt.Fprintf(os.Stderr, "  db       Migrate a legacy badger database into the GORM-based database\n")
	_, _ = fmt.Fprintf(os.Stderr, "\n")
	_, _ = fmt.Fprintf(os.Stderr, "Use 'asrmigrate <subcommand> -h' for help on a subcommand.\n")
}

func dbCmd(args []string) int {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	var (
		src        = fs.String("src", "", "Path to the legacy badger database directory")
		configFile = fs.String("config", "config.yaml", "The registry config file; its storage section is the migration target")
		v          = fs.Bool("v", false, "Verbose logging")
	)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage: asrmigrate db -src <badger_dir> -config <config.yaml>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *v {
		log.SetLevel(log.DebugLevel)
	}
	if *src == "" {
		_, _ = fmt.Fprintln(os.Stderr, "-src is required")
		fs.Usage()
		return 2
	}

	config.Load(*configFile)
	c := config.Get()
	backends, err := config.LoadStorageBackends(c.Storage, c.API.Admin.Argon2idParams)
	if err != nil {
		log.WithError(err).Error("could not load target storage")
		return 1
	}

	legacy, err := OpenBadgerStorage(*src)
	if err != nil {
		log.WithError(err).Error("could not open legacy badger database")
		return 1
	}
	defer func() {
		_ = legacy.Close()
	}()

	entityRecords, err := legacy.Entities()
	if err != nil {
		log.WithError(err).Error("could not read legacy entities")
		return 1
	}
	if err = migrateEntities(entityRecords, backends.Entities); err != nil {
		log.WithError(err).Error("entity migration failed")
		return 1
	}
	orchestrationRecords, err := legacy.Orchestrations()
	if err != nil {
		log.WithError(err).Error("could not read legacy orchestrations")
		return 1
	}
	if err = migrateOrchestrations(orchestrationRecords, backends.Orchestrations); err != nil {
		log.WithError(err).Error("orchestration migration failed")
		return 1
	}
	log.Info("migration completed")
	return 0
}

// knownMethods are the verification methods the tier evaluator understands;
// legacy records carrying anything else are migrated without their verification.
var knownMethods = []string{
	model.VerificationMethodEHerkenning,
	model.VerificationMethodDNS,
	model.VerificationMethodEmailRegistry,
}

func migrateEntities(records []legacyEntity, entities model.EntityStore) error {
	for _, r := range records {
		entity := &model.LegalEntity{
			ID:             r.ID,
			Domain:         r.Domain,
			Name:           r.Name,
			Tier:           model.Tier(r.Tier),
			RegistryNumber: r.RegistryNumber,
		}
		if !entity.Tier.Valid() {
			entity.Tier = model.Tier3
		}
		if err := entities.Create(entity); err != nil {
			return err
		}
		if r.VerificationMethod == "" {
			continue
		}
		if !slices.Contains(knownMethods, r.VerificationMethod) {
			log.WithFields(log.Fields{
				"entity": r.ID, "method": r.VerificationMethod,
			}).Warn("unknown verification method, entity migrated unverified")
			continue
		}
		var due *int64
		if r.ReverificationDue > 0 {
			due = &r.ReverificationDue
		}
		if _, err := entities.ApplyVerification(
			entity.ID, entity.Tier, r.VerificationMethod, r.VerifiedAt, due,
		); err != nil {
			return err
		}
	}
	log.WithField("count", len(records)).Info("migrated entities")
	return nil
}

func migrateOrchestrations(records []legacyOrchestration, orchestrations model.OrchestrationStore) error {
	for _, r := range records {
		orchestration := &model.Orchestration{
			OrderReference:     r.OrderReference,
			OrchestratorDomain: r.OrchestratorDomain,
			OrchestratorName:   r.OrchestratorName,
			CustomerDomain:     r.CustomerDomain,
			CustomerName:       r.CustomerName,
			BusinessKeys:       r.BusinessKeys,
			Type:               r.Type,
		}
		if err := orchestrations.Create(orchestration); err != nil {
			return err
		}
		// The legacy store had no unique index over (domain, role); the new
		// schema does, so duplicates are dropped instead of aborting the run.
		var seen []string
		for _, p := range r.Participants {
			if p.Removed {
				// Removed participants are historical; the legacy store kept
				// no authorization trail for them worth carrying over.
				continue
			}
			slot := p.Domain + "/" + p.Role
			if slices.Contains(seen, slot) {
				log.WithFields(log.Fields{
					"order": r.OrderReference, "participant": slot,
				}).Warn("skipping duplicate legacy participant")
				continue
			}
			seen = append(seen, slot)
			if err := orchestrations.AddParticipant(
				&model.OrchestrationParticipant{
					OrchestrationID: orchestration.ID,
					Domain:          p.Domain,
					Name:            p.Name,
					Role:            p.Role,
					AuthorizedBy:    p.AuthorizedBy,
					AuthorizedAt:    p.AuthorizedAt,
				},
			); err != nil {
				return err
			}
		}
		// Terminal statuses are applied last so participants can be added.
		if status, err := model.ParseStatus(r.Status); err == nil && status.Terminal() {
			if err = orchestrations.SetStatus(orchestration.ID, status); err != nil {
				return err
			}
		}
	}
	log.WithField("count", len(records)).Info("migrated orchestrations")
	return nil
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "db":
		os.Exit(dbCmd(os.Args[2:]))
	case "-h", "--help", "help":
		usage()
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown subcommand %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}
