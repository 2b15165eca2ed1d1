package main

import (
	"net/url"

	"github.com/mcdev12/recognizer/go/internal/config"
	"github.com/mcdev12/recognizer/go/internal/pairing"
)

// pairingParams merges the pairing link with the explicit --manage and
// --force values, which win over the link.
func pairingParams(cfg *config.Config) (url.Values, error) {
	params, err := pairing.ParseParams(cfg.Link)
	if err != nil {
		return nil, err
	}
	if cfg.Manage != "" {
		params.Set(pairing.ParamManage, cfg.Manage)
	}
	if cfg.Force != "" {
		params.Set(pairing.ParamForce, cfg.Force)
	}
	return params, nil
}
