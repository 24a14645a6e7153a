package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ImportDateSource is a pseudo source resolved to the export date instead of a mapped field.
const ImportDateSource = "@import_date"

// ExportColumn is one output column of the CRM export schema. Sources are canonical
// field names tried in order; the first truthy value wins, otherwise Default.
type ExportColumn struct {
	Name    string   `mapstructure:"name"`
	Sources []string `mapstructure:"sources"`
	Default string   `mapstructure:"default"`
}

type ExportConfig struct {
	CRMColumns []ExportColumn `mapstructure:"crmColumns"`
}

func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		CRMColumns: []ExportColumn{
			{Name: "AC_Account_Number", Sources: []string{"broker_id", "agent_code"}},
			{Name: "Account_Name", Sources: []string{"broker_name", "agent_name"}},
			{Name: "Account_Owner"},
			{Name: "Account_Type", Default: "Brokers - Member"},
			{Name: "Entity_Type", Default: "LLC"},
			{Name: "Primary_Contact", Sources: []string{"agent_name"}},
			{Name: "Email", Sources: []string{"email"}},
			{Name: "Mobile", Sources: []string{"phone"}},
			{Name: "Mailing_Street", Sources: []string{"address"}},
			{Name: "Mailing_City", Sources: []string{"city"}},
			{Name: "Mailing_State", Sources: []string{"state"}},
			{Name: "Mailing_Zip", Sources: []string{"zip"}},
			{Name: "New_WP", Sources: []string{"new_wp", "new_written_premium"}},
			{Name: "Total_WP", Sources: []string{"total_wp", "premium", "amount"}},
			{Name: "Earned_Premium", Sources: []string{"earned"}},
			{Name: "Incurred", Sources: []string{"incurred"}},
			{Name: "Loss_Ratio", Sources: []string{"loss_ratio"}},
			{Name: "Policy_Type", Sources: []string{"policy_type"}},
			{Name: "PG_Code", Sources: []string{"pg_code"}},
			{Name: "Record_Source", Default: "Rev-Box Import"},
			{Name: "Import_Date", Sources: []string{ImportDateSource}},
		},
	}
}

type ExportConfigHolder struct {
	current atomic.Value // holds ExportConfig
}

// NewStaticExportConfigHolder returns a holder that never reloads.
func NewStaticExportConfigHolder(cfg ExportConfig) *ExportConfigHolder {
	holder := &ExportConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewExportConfigHolder(log *zap.Logger) (*ExportConfigHolder, error) {
	log = log.Named("export.config")
	v := viper.New()

	v.SetConfigName("export")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/revbox")
	v.AddConfigPath(".")

	v.SetEnvPrefix("REVBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		found = false
		v.SetDefault("export.crmColumns", DefaultExportConfig().CRMColumns)
	}

	var cfg ExportConfig
	if err := v.UnmarshalKey("export", &cfg); err != nil {
		return nil, err
	}
	if err := validateExportConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticExportConfigHolder(cfg)
	if !found {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ExportConfig
		if err := v.UnmarshalKey("export", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validateExportConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *ExportConfigHolder) Get() ExportConfig {
	return h.current.Load().(ExportConfig)
}

func validateExportConfig(cfg ExportConfig) error {
	if len(cfg.CRMColumns) == 0 {
		return errors.New("export.crmColumns cannot be empty")
	}
	seen := make(map[string]struct{}, len(cfg.CRMColumns))
	for _, col := range cfg.CRMColumns {
		name := strings.TrimSpace(col.Name)
		if name == "" {
			return errors.New("export.crmColumns: column name is required")
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("export.crmColumns: duplicate column %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
