package cli

import (
	"github.com/spf13/cobra"
)

// siteInfo is the printed site configuration with derived hosts.
type siteInfo struct {
	SiteName    string `json:"site_name" yaml:"site_name"`
	BaseURL     string `json:"base_url" yaml:"base_url"`
	ContentHost string `json:"content_host" yaml:"content_host"`
	CMSHost     string `json:"cms_host" yaml:"cms_host"`
	SearchHost  string `json:"search_host" yaml:"search_host"`
}

func newSiteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "site",
		Short: "Print the site configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.resolve()
			if err != nil {
				return err
			}
			site := env.settings.Site
			if err := site.Validate(); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.output, siteInfo{
				SiteName:    site.SiteName,
				BaseURL:     site.BaseURL,
				ContentHost: site.ContentHost(),
				CMSHost:     site.CMSHost(),
				SearchHost:  site.SearchHost(),
			})
		},
	}
}
