package main

import (
	"context"
	"errors"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/smithy-go"
)

// DistributionAPI is the narrow slice of the CloudFront client the
// accessor uses, split out so tests can stand in a fake.
type DistributionAPI interface {
	GetDistribution(
		ctx context.Context,
		in *cloudfront.GetDistributionInput,
		opts ...func(*cloudfront.Options),
	) (*cloudfront.GetDistributionOutput, error)

	UpdateDistribution(
		ctx context.Context,
		in *cloudfront.UpdateDistributionInput,
		opts ...func(*cloudfront.Options),
	) (*cloudfront.UpdateDistributionOutput, error)
}

// Account pairs a configured account name with its CloudFront client.
type Account struct {
	Name string
	API  DistributionAPI
}

// Accounts builds one CloudFront client per configured account.
// Accounts with missing credential fields are logged and skipped; the
// caller decides whether having none left is fatal.
func Accounts(cfgs []AccountConfig, logger Logger) []*Account {
	accounts := make([]*Account, 0, len(cfgs))

	for _, cfg := range cfgs {
		err := cfg.Validate()
		if err != nil {
			logger.Errorw(
				"skipping account",
				"account", cfg.AccountName,
				"error", err,
			)

			continue
		}

		// An empty session token selects permanent credentials.
		creds := credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			cfg.SessionToken,
		)

		accounts = append(accounts, &Account{
			Name: cfg.AccountName,
			API: cloudfront.New(cloudfront.Options{
				Region:      cfg.Region,
				Credentials: creds,
			}),
		})

		logger.Infow("initialized account", "account", cfg.AccountName)
	}

	return accounts
}

// DistributionInfo is the snapshot of a distribution the rest of the
// tool works from. The concurrency token is deliberately absent: the
// accessor refetches it immediately before any update.
type DistributionInfo struct {
	Account string
	ID      string
	Domain  string
	Status  string
	Record  RestrictionRecord
}

func NewAccessor(logger Logger, accounts ...*Account) (*Accessor, error) {
	err := checkNil(logger)
	if err != nil {
		return nil, err
	}

	return &Accessor{
		accounts: accounts,
		logger:   logger,
	}, nil
}

// Accessor reads and conditionally writes a distribution's geo
// restriction record, scanning the configured accounts in order.
type Accessor struct {
	accounts []*Account
	logger   Logger
}

// Fetch locates the distribution by scanning each account in turn,
// short-circuiting on the first success. Not-found and access-denied
// results move the scan to the next account; a malformed identifier is
// terminal since it cannot succeed anywhere.
func (a *Accessor) Fetch(
	ctx context.Context,
	id string,
) (*DistributionInfo, error) {
	for _, account := range a.accounts {
		a.logger.Debugw(
			"checking distribution",
			"distribution", id,
			"account", account.Name,
		)

		out, err := account.API.GetDistribution(
			ctx,
			&cloudfront.GetDistributionInput{Id: aws.String(id)},
		)
		if err != nil {
			err = classify(err)

			switch {
			case errors.Is(err, ErrNotFound):
				a.logger.Warnw(
					"distribution not found in account",
					"distribution", id,
					"account", account.Name,
				)
			case errors.Is(err, ErrAccessDenied):
				a.logger.Errorw(
					"access denied",
					"distribution", id,
					"account", account.Name,
				)
			case errors.Is(err, ErrInvalidID):
				return nil, &Error{
					Category:     CLOUDFRONT,
					Msg:          "invalid distribution id format",
					Inner:        ErrInvalidID,
					Distribution: id,
					Hint:         "distribution ids look like E1234567890ABCD",
				}
			default:
				a.logger.Errorw(
					"provider error",
					"distribution", id,
					"account", account.Name,
					"error", err,
				)
			}

			continue
		}

		if out.Distribution == nil {
			a.logger.Errorw(
				"malformed provider response",
				"distribution", id,
				"account", account.Name,
			)

			continue
		}

		return info(account.Name, out.Distribution), nil
	}

	return nil, &Error{
		Category:     CLOUDFRONT,
		Msg:          "distribution not found in any configured account",
		Inner:        ErrNotFound,
		Distribution: id,
		Hint:         "verify the id and the aws_accounts entries in the config file",
	}
}

// Update submits a new restriction record for the distribution. The
// concurrency token is refetched here, never reused from an earlier
// read, because the record may have changed since. A stale token still
// fails the conditional write; that failure is reported for a manual
// retry, never retried automatically.
func (a *Accessor) Update(
	ctx context.Context,
	dist *DistributionInfo,
	rec RestrictionRecord,
) error {
	var account *Account
	for _, candidate := range a.accounts {
		if candidate.Name == dist.Account {
			account = candidate
			break
		}
	}

	if account == nil {
		return &Error{
			Category: CLOUDFRONT,
			Msg:      "no client for account",
			Account:  dist.Account,
		}
	}

	current, err := account.API.GetDistribution(
		ctx,
		&cloudfront.GetDistributionInput{Id: aws.String(dist.ID)},
	)
	if err != nil {
		return &Error{
			Category:     CLOUDFRONT,
			Msg:          "failed to fetch current distribution state",
			Inner:        classify(err),
			Distribution: dist.ID,
			Account:      dist.Account,
		}
	}

	if current.Distribution == nil ||
		current.Distribution.DistributionConfig == nil {
		return &Error{
			Category:     CLOUDFRONT,
			Msg:          "malformed provider response",
			Distribution: dist.ID,
			Account:      dist.Account,
		}
	}

	cfg := current.Distribution.DistributionConfig
	cfg.Restrictions = &types.Restrictions{
		GeoRestriction: &types.GeoRestriction{
			RestrictionType: types.GeoRestrictionType(rec.Type.String()),
			Quantity:        aws.Int32(int32(len(rec.Countries))),
			Items:           rec.Countries,
		},
	}

	_, err = account.API.UpdateDistribution(
		ctx,
		&cloudfront.UpdateDistributionInput{
			Id:                 aws.String(dist.ID),
			DistributionConfig: cfg,
			IfMatch:            current.ETag,
		},
	)
	if err != nil {
		err = classify(err)
		if errors.Is(err, ErrInvalidID) {
			// A malformed argument on a write is a bad
			// restriction payload, not a bad identifier.
			err = ErrInvalidConfig
		}

		hint := ""
		switch {
		case errors.Is(err, ErrConflict):
			hint = "the distribution changed while editing; rerun and try again"
		case errors.Is(err, ErrAccessDenied):
			hint = "check the account's CloudFront update permissions"
		case errors.Is(err, ErrInvalidConfig):
			hint = "check the restriction type and country codes"
		}

		return &Error{
			Category:     CLOUDFRONT,
			Msg:          "failed to update distribution",
			Inner:        err,
			Distribution: dist.ID,
			Account:      dist.Account,
			Hint:         hint,
		}
	}

	return nil
}

func info(account string, dist *types.Distribution) *DistributionInfo {
	out := &DistributionInfo{
		Account: account,
		ID:      aws.ToString(dist.Id),
		Domain:  "Unknown",
		Status:  "Unknown",
		Record:  RestrictionRecord{Type: NoRestriction},
	}

	if dist.DomainName != nil {
		out.Domain = *dist.DomainName
	}

	if dist.Status != nil {
		out.Status = *dist.Status
	}

	cfg := dist.DistributionConfig
	if cfg == nil || cfg.Restrictions == nil ||
		cfg.Restrictions.GeoRestriction == nil {
		return out
	}

	geo := cfg.Restrictions.GeoRestriction
	out.Record = RestrictionRecord{
		Type:      ToRestrictionType(string(geo.RestrictionType)),
		Countries: slices.Clone(geo.Items),
	}

	return out
}

// classify maps provider errors onto the tool's sentinels.
func classify(err error) error {
	var (
		notFound     *types.NoSuchDistribution
		accessDenied *types.AccessDenied
		invalidArg   *types.InvalidArgument
		precondition *types.PreconditionFailed
	)

	switch {
	case errors.As(err, &notFound):
		return ErrNotFound
	case errors.As(err, &accessDenied):
		return ErrAccessDenied
	case errors.As(err, &invalidArg):
		return ErrInvalidID
	case errors.As(err, &precondition):
		return ErrConflict
	}

	// Some rejection modes only surface as generic API errors.
	var api smithy.APIError
	if errors.As(err, &api) {
		switch api.ErrorCode() {
		case "PreconditionFailed":
			return ErrConflict
		case "AccessDenied":
			return ErrAccessDenied
		case "InvalidArgument":
			return ErrInvalidID
		case "InconsistentQuantities", "InvalidGeoRestrictionParameter":
			return ErrInvalidConfig
		}
	}

	return err
}
