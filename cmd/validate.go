package cmd

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/astrolabe/internal/chartfile"
	"github.com/papapumpkin/astrolabe/internal/config"
	"github.com/papapumpkin/astrolabe/internal/engine"
	"github.com/papapumpkin/astrolabe/internal/ephemeris"
)

var errValidation = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate [FILE|DIR...]",
	Short: "Check the configuration and chart definition files",
	Long: `Loads the configuration and builds the aspect and antiscion detectors from
it, then checks every given definition file. Directories are searched for
TOML and YAML files.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	p := newPrinter(cmd)

	cfg, err := config.Load()
	if err != nil {
		p.Fail("config: %v", err)
		return errValidation
	}
	eng, err := engine.New(cfg, ephemeris.New())
	if err != nil {
		p.Fail("config: %v", err)
		return errValidation
	}
	if used := viper.ConfigFileUsed(); used != "" {
		p.OK("config %s", used)
	} else {
		p.OK("config defaults")
	}

	files, err := definitionFiles(args)
	if err != nil {
		p.Fail("%v", err)
		return errValidation
	}
	ok := true
	for _, path := range files {
		if err := checkDefinition(eng, path); err != nil {
			p.Fail("%s: %v", path, err)
			ok = false
			continue
		}
		p.OK("%s", path)
	}
	if !ok {
		return errValidation
	}
	return nil
}

func checkDefinition(eng *engine.Engine, path string) error {
	def, err := chartfile.Load(path)
	if err != nil {
		return err
	}
	if err := eng.Complete(&def); err != nil {
		return err
	}
	_, err = eng.Build(def)
	return err
}

// definitionFiles expands directories in args to the definition files they
// contain.
func definitionFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && chartfile.IsDefinitionFile(e.Name()) {
				files = append(files, filepath.Join(arg, e.Name()))
			}
		}
	}
	return files, nil
}
