package config

import (
	asr "github.com/DeNoronha/ctn-asr-demo-sub015"
)

// Endpoints holds configuration for the different possible endpoints
type Endpoints struct {
	Issuance     asr.EndpointConf `yaml:"issuance"`
	Validation   asr.EndpointConf `yaml:"validation"`
	Usage        asr.EndpointConf `yaml:"usage"`
	JWKS         asr.EndpointConf `yaml:"jwks"`
	TokenStatus  asr.EndpointConf `yaml:"token_status"`
	EntityStatus asr.EndpointConf `yaml:"entity_status"`
}

func (e *Endpoints) validate() error {
	return nil
}

var defaultEndpointsConf = Endpoints{
	Issuance:     asr.EndpointConf{Path: "/tokens"},
	Validation:   asr.EndpointConf{Path: "/tokens/validate"},
	Usage:        asr.EndpointConf{Path: "/tokens"},
	JWKS:         asr.EndpointConf{Path: "/jwks"},
	TokenStatus:  asr.EndpointConf{Path: "/status/tokens"},
	EntityStatus: asr.EndpointConf{Path: "/status/entities"},
}
