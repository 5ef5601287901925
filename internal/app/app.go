// Package app wires configuration into a ready orchestrator for the
// server and CLI commands.
package app

import (
	"log/slog"
	"time"

	"github.com/youruser/dexlabel/internal/config"
	"github.com/youruser/dexlabel/internal/dex"
	imagepkg "github.com/youruser/dexlabel/internal/image"
	"github.com/youruser/dexlabel/internal/label"
	"github.com/youruser/dexlabel/internal/lookup"
	"github.com/youruser/dexlabel/internal/util"
)

const maxRetryWait = 2 * time.Second

// NewOrchestrator builds the data client, image loader, fonts and composer
// described by cfg.
func NewOrchestrator(cfg *config.Config, log *slog.Logger) (*lookup.Orchestrator, error) {
	fonts, err := label.LoadFonts(label.FontPaths{
		Regular: cfg.Fonts.Regular,
		Bold:    cfg.Fonts.Bold,
		Italic:  cfg.Fonts.Italic,
	})
	if err != nil {
		return nil, err
	}

	apiClient := util.NewHTTPClient(util.ClientOptions{
		Timeout:      cfg.API.Timeout(),
		Retries:      cfg.API.Retries,
		RetryWaitMax: maxRetryWait,
		Logger:       log.With("client", "api"),
	})
	assetClient := util.NewHTTPClient(util.ClientOptions{
		Timeout:      cfg.Assets.Timeout(),
		Retries:      cfg.Assets.Retries,
		RetryWaitMax: maxRetryWait,
		Logger:       log.With("client", "assets"),
	})

	composer := label.NewComposer(label.Options{
		Layout:    label.DefaultLayout(),
		Fonts:     fonts,
		Loader:    imagepkg.NewLoader(assetClient, cfg.Assets.Timeout(), log),
		BadgeBase: cfg.Assets.BadgeBase,
		Log:       log,
	})
	return lookup.New(lookup.Options{
		Dex:            dex.NewClient(cfg.API.BaseURL, apiClient),
		Composer:       composer,
		CryURL:         cfg.Cry.URL,
		RequestTimeout: (cfg.API.Timeout() + maxRetryWait) * time.Duration(cfg.API.Retries+1),
		Log:            log,
	}), nil
}
