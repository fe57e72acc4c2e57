package app

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/pkg/errors"

	"github.com/dzeya/mensor-construction-4/internal/config"
	"github.com/dzeya/mensor-construction-4/internal/paramstore"
)

// LoadSecrets fills secrets missing from the environment from SSM Parameter
// Store when PARAM_PREFIX is set.
func LoadSecrets(ctx context.Context, cfg *config.Config) error {
	if cfg.ParamPrefix == "" {
		return nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return errors.Wrap(err, "load AWS config")
	}
	params, err := paramstore.New(ssm.NewFromConfig(awsCfg))
	if err != nil {
		return err
	}
	return cfg.LoadSecrets(ctx, params)
}
