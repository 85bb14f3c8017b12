// Package backend wires the matcher backends to command-line flags shared by
// the fusex binaries.
package backend

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"

	"github.com/letmevibethatforyou/fusex"
	"github.com/letmevibethatforyou/fusex/algolia"
	"github.com/letmevibethatforyou/fusex/inmemory"
)

// DefaultIDKey identifies books in the bundled catalog.
const DefaultIDKey = "link"

// Backend names accepted by --backend.
const (
	InMemory = "inmemory"
	Algolia  = "algolia"
)

// SecretFlags are the flags that locate Algolia credentials.
func SecretFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "algolia-secret-arn",
			Usage:   "ARN of AWS Secrets Manager secret containing Algolia credentials",
			EnvVars: []string{"ALGOLIA_SECRET_ARN"},
		},
		&cli.StringFlag{
			Name:    "env",
			Usage:   "Environment name for AWS Secrets Manager (takes precedence over API key/ID flags)",
			EnvVars: []string{"ENV", "ENVIRONMENT"},
		},
		&cli.StringFlag{
			Name:    "algolia-app-id",
			Usage:   "Algolia application ID",
			EnvVars: []string{"ALGOLIA_APP_ID"},
		},
		&cli.StringFlag{
			Name:    "algolia-api-key",
			Usage:   "Algolia API key",
			EnvVars: []string{"ALGOLIA_API_KEY"},
		},
	}
}

// IndexFlags are the flags naming the Algolia index and its object IDs.
func IndexFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "index",
			Aliases: []string{"i"},
			Usage:   "Algolia index name",
			EnvVars: []string{"ALGOLIA_INDEX"},
		},
		&cli.StringFlag{
			Name:  "id-key",
			Usage: "Document field holding the Algolia objectID",
			Value: DefaultIDKey,
		},
	}
}

// Flags returns --backend plus every flag the algolia backend needs.
func Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "backend",
			Aliases: []string{"b"},
			Usage:   "Matcher backend: inmemory or algolia",
			EnvVars: []string{"FUSEX_BACKEND"},
			Value:   InMemory,
		},
	}
	flags = append(flags, IndexFlags()...)
	return append(flags, SecretFlags()...)
}

// Secrets picks a credential source: a secret ARN, then an environment's
// secret path, then static flags, then environment variables.
func Secrets(ctx context.Context, c *cli.Context) (algolia.FetchSecrets, error) {
	arn := strings.TrimSpace(c.String("algolia-secret-arn"))
	env := strings.TrimSpace(c.String("env"))
	appID := c.String("algolia-app-id")
	apiKey := c.String("algolia-api-key")

	switch {
	case arn != "" || env != "":
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load AWS config")
		}
		client := secretsmanager.NewFromConfig(cfg)
		if arn != "" {
			slog.InfoContext(ctx, "Using AWS Secrets Manager for credentials", "secret_arn", arn)
			return algolia.AWSSecretsFromARN(ctx, client, arn), nil
		}
		slog.InfoContext(ctx, "Using AWS Secrets Manager for credentials", "environment", env)
		return algolia.AWSSecrets(ctx, client, env), nil
	case appID != "" && apiKey != "":
		slog.InfoContext(ctx, "Using static credentials from flags")
		return algolia.StaticSecrets(appID, apiKey), nil
	default:
		slog.InfoContext(ctx, "Using environment variables for credentials")
		return algolia.EnvSecrets(), nil
	}
}

// Factory builds the matcher factory selected by --backend.
func Factory(ctx context.Context, c *cli.Context) (fusex.MatcherFactory, error) {
	switch name := strings.ToLower(strings.TrimSpace(c.String("backend"))); name {
	case "", InMemory:
		return inmemory.Factory, nil
	case Algolia:
		indexName := strings.TrimSpace(c.String("index"))
		if indexName == "" {
			return nil, errors.Wrap(fusex.ErrInvalidOption, "--index is required for the algolia backend")
		}
		fetchSecrets, err := Secrets(ctx, c)
		if err != nil {
			return nil, err
		}
		return algolia.NewMatcherFactory(algolia.NewClient(fetchSecrets), indexName, c.String("id-key")), nil
	default:
		return nil, errors.Wrapf(fusex.ErrInvalidOption, "unknown backend %q", name)
	}
}
