package main

import "fmt"

type Config struct {
	AWSAccounts     []AccountConfig  `json:"aws_accounts" mapstructure:"aws_accounts"`
	DistributionIDs []string         `json:"distribution_ids" mapstructure:"distribution_ids"`
	Stormforge      StormforgeConfig `json:"stormforge" mapstructure:"stormforge"`
	CountryCodes    string           `json:"country_codes_file" mapstructure:"country_codes_file"`
	ClusterRegions  string           `json:"cluster_regions_file" mapstructure:"cluster_regions_file"`
}

type AccountConfig struct {
	AccountName     string `json:"account_name" mapstructure:"account_name"`
	AccessKeyID     string `json:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" mapstructure:"secret_access_key"`
	SessionToken    string `json:"session_token" mapstructure:"session_token"`
	Region          string `json:"region" mapstructure:"region"`
}

// Validate reports the required credential fields missing from the
// account entry. An account with missing fields is skipped, not fatal;
// the caller logs and moves on.
func (a AccountConfig) Validate() error {
	missing := []string{}
	if a.AccountName == "" {
		missing = append(missing, "account_name")
	}

	if a.AccessKeyID == "" {
		missing = append(missing, "access_key_id")
	}

	if a.SecretAccessKey == "" {
		missing = append(missing, "secret_access_key")
	}

	if a.Region == "" {
		missing = append(missing, "region")
	}

	if len(missing) > 0 {
		return fmt.Errorf(
			"account %q missing required fields %v",
			a.AccountName, missing,
		)
	}

	return nil
}

type StormforgeConfig struct {
	APIToken string `json:"api_token" mapstructure:"api_token"`
	BaseURL  string `json:"base_url" mapstructure:"base_url"`
}
