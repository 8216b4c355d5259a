package settings

import (
	"fmt"

	"github.com/julianstephens/daytrack/internal/cli"
	"github.com/julianstephens/daytrack/internal/constants"
)

type SettingsGetCmd struct {
	Key string `arg:"" optional:"" help:"Setting key. Lists every setting when omitted."`
}

func (c *SettingsGetCmd) Run(ctx *cli.Context) error {
	settings := ctx.Store.Settings()
	if c.Key != "" {
		value, ok := settings.Get(c.Key)
		if !ok {
			return fmt.Errorf("unknown setting %q", c.Key)
		}
		fmt.Println(value)
		return nil
	}

	fmt.Println("Current Settings:")
	for _, key := range constants.SettingKeys {
		value, _ := settings.Get(key)
		fmt.Printf("  %-22s %s\n", key+":", value)
	}
	return nil
}

type SettingsSetCmd struct {
	Key   string `arg:"" help:"Setting key."`
	Value string `arg:"" help:"New value."`
}

func (c *SettingsSetCmd) Run(ctx *cli.Context) error {
	if c.Key == constants.SettingDefaultCategoryID {
		cat, err := ctx.ResolveCategory(c.Value)
		if err != nil {
			return err
		}
		c.Value = cat.ID
	}

	if _, err := ctx.Store.UpdateSetting(c.Key, c.Value); err != nil {
		return err
	}
	fmt.Println(cli.Success(fmt.Sprintf("%s = %s", c.Key, c.Value)))
	return nil
}
