package app

import (
	"fmt"
	"io"

	"rpgm-translator/internal/config"
	"rpgm-translator/internal/lang"
)

func RunSetServer(configPath, url string) error {
	p, err := config.ResolvePath(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.SetServer(p, url)
	if err != nil {
		return err
	}
	fmt.Printf("server.base_url = %s (%s)\n", cfg.Server.BaseURL, p)
	return nil
}

// RunLangs lists the language catalog.
func RunLangs(w io.Writer) error {
	for _, l := range lang.All() {
		if _, err := fmt.Fprintf(w, "%-4s %s\n", l.Code, l.Name); err != nil {
			return err
		}
	}
	return nil
}
