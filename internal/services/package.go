package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pybook/pybook-backend/internal/clients/pypi"
	"github.com/pybook/pybook-backend/internal/content"
	"github.com/pybook/pybook-backend/internal/normalization"
	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
)

// ErrPackageCheckFailed marks a package whose existence could not be
// confirmed either way; callers surface it as retryable, distinct from a
// package that is known not to exist.
var ErrPackageCheckFailed = fmt.Errorf("package check failed: %w", apperrors.ErrUnavailable)

const bulkCheckConcurrency = 5

type PackageCheck struct {
	Name   string           `json:"name"`
	Result pypi.CheckResult `json:"result"`
	Detail string           `json:"detail,omitempty"`
}

type PackageService interface {
	// Validate resolves the three-state existence check for one package name.
	Validate(ctx context.Context, name string) (PackageCheck, error)
	// ValidateAll checks every name concurrently. It returns an error only
	// when the checks themselves could not run; individual outcomes are in
	// the returned slice, ordered as the input.
	ValidateAll(ctx context.Context, names []string) ([]PackageCheck, error)
	// ValidateForAdd enforces the add-package rules: invalid names are
	// rejected outright, unknown outcomes block with a retryable error.
	ValidateForAdd(ctx context.Context, name string) (string, error)
}

type packageService struct {
	log    *logger.Logger
	client pypi.Client
}

func NewPackageService(log *logger.Logger, client pypi.Client) PackageService {
	return &packageService{
		log:    log.With("service", "PackageService"),
		client: client,
	}
}

func (ps *packageService) Validate(ctx context.Context, name string) (PackageCheck, error) {
	normalized := normalization.NormalizePackageName(name)
	check := PackageCheck{Name: normalized}
	if normalized == "" {
		check.Result = pypi.ResultInvalid
		check.Detail = "empty package name"
		return check, nil
	}
	result, err := ps.client.CheckPackage(ctx, normalized)
	check.Result = result
	if result == pypi.ResultUnknown && err != nil {
		check.Detail = err.Error()
	}
	return check, nil
}

func (ps *packageService) ValidateAll(ctx context.Context, names []string) ([]PackageCheck, error) {
	checks := make([]PackageCheck, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkCheckConcurrency)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			check, err := ps.Validate(gctx, name)
			if err != nil {
				return err
			}
			checks[i] = check
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return checks, nil
}

// ValidateForAdd returns the normalized name when the package verifiably
// exists.
func (ps *packageService) ValidateForAdd(ctx context.Context, name string) (string, error) {
	check, err := ps.Validate(ctx, name)
	if err != nil {
		return "", err
	}
	switch check.Result {
	case pypi.ResultValid:
		return check.Name, nil
	case pypi.ResultInvalid:
		return "", &content.ValidationError{Field: "package", Value: name}
	default:
		ps.log.Warn("package check inconclusive", "package", check.Name, "detail", check.Detail)
		return "", fmt.Errorf("could not verify package %q: %w", check.Name, ErrPackageCheckFailed)
	}
}
