// Package config builds the immutable configuration value handed to the
// analysis core. Values come from defaults, an optional config file, the
// environment and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the complete configuration of one analysis run.
// It is passed by value and never modified by the core.
type Config struct {
	Root      string   `mapstructure:"root"`
	OutputDir string   `mapstructure:"output_dir"`
	Workers   int      `mapstructure:"workers"`
	Filter    Filter   `mapstructure:"filter"`
	Chunking  Chunking `mapstructure:"chunking"`
	Skeleton  Skeleton `mapstructure:"skeleton"`
	Storage   Storage  `mapstructure:"storage"`
	Log       Log      `mapstructure:"log"`
}

// Filter controls which paths take part in analysis
type Filter struct {
	DenyDirs          []string `mapstructure:"deny_dirs"`
	IncludeExtensions []string `mapstructure:"include_extensions"` // empty means all non-binary
	BinaryExtensions  []string `mapstructure:"binary_extensions"`
	IgnoreGlobs       []string `mapstructure:"ignore_globs"`
	IgnoreFile        string   `mapstructure:"ignore_file"` // relative to the root
	MaxFileSize       int64    `mapstructure:"max_file_size"`
	SniffBytes        int      `mapstructure:"sniff_bytes"`
}

// Chunking controls how file content is partitioned
type Chunking struct {
	TargetSize      int     `mapstructure:"target_size"`
	ToleranceFactor float64 `mapstructure:"tolerance_factor"`
	Boundary        string  `mapstructure:"boundary"` // "auto" or "lines"
	OverlapLines    int     `mapstructure:"overlap_lines"`
}

// Skeleton controls the project skeleton rendering
type Skeleton struct {
	Budget   int `mapstructure:"budget"`    // bytes, <= 0 disables the limit
	MaxDepth int `mapstructure:"max_depth"` // 0 means unlimited
}

// Storage configures the SQLite chunk store
type Storage struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

// Log configures the zap logger
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
}

// Boundary policies
const (
	BoundaryAuto  = "auto"
	BoundaryLines = "lines"
)

// DefaultDenyDirs are directory names pruned from every walk
var DefaultDenyDirs = []string{
	".git", ".hg", ".svn", ".idea", ".vscode",
	"node_modules", "build", "dist", "target", "__pycache__",
	"vendor", ".venv", "venv", ".tox", ".mypy_cache", ".pytest_cache",
	".gradle", ".next", ".cache", "out", "bin", "obj",
}

// DefaultBinaryExtensions are never analyzed
var DefaultBinaryExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".ico", ".bmp", ".tiff", ".svg",
	".mp4", ".m4v", ".mov", ".mkv", ".webm", ".avi", ".wmv",
	".mp3", ".wav", ".ogg", ".flac", ".m4a", ".aac",
	".pdf", ".zip", ".jar", ".war", ".gz", ".tgz", ".bz2", ".xz", ".7z", ".rar",
	".exe", ".dll", ".dylib", ".so", ".a", ".o", ".class", ".pyc", ".wasm",
	".woff", ".woff2", ".ttf", ".otf", ".eot",
	".db", ".sqlite", ".bin", ".dat",
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Root:      ".",
		OutputDir: "./data",
		Workers:   runtime.NumCPU(),
		Filter: Filter{
			DenyDirs:         append([]string(nil), DefaultDenyDirs...),
			BinaryExtensions: append([]string(nil), DefaultBinaryExtensions...),
			IgnoreFile:       ".factoryignore",
			MaxFileSize:      1 << 20,
			SniffBytes:       8000,
		},
		Chunking: Chunking{
			TargetSize:      4000,
			ToleranceFactor: 1.5,
			Boundary:        BoundaryAuto,
		},
		Skeleton: Skeleton{
			Budget:   16000,
			MaxDepth: 0,
		},
		Storage: Storage{
			Enabled: false,
			DBPath:  "./data/codefactory.db",
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate rejects configurations the core cannot run with
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Root) == "" {
		errs = append(errs, errors.New("root is required"))
	}
	if c.Workers < 0 {
		errs = append(errs, errors.New("workers must be >= 0"))
	}
	if c.Chunking.TargetSize <= 0 {
		errs = append(errs, errors.New("chunking.target_size must be > 0"))
	}
	if c.Chunking.ToleranceFactor < 1 {
		errs = append(errs, errors.New("chunking.tolerance_factor must be >= 1"))
	}
	if c.Chunking.Boundary != BoundaryAuto && c.Chunking.Boundary != BoundaryLines {
		errs = append(errs, fmt.Errorf("chunking.boundary must be %q or %q", BoundaryAuto, BoundaryLines))
	}
	if c.Chunking.OverlapLines < 0 {
		errs = append(errs, errors.New("chunking.overlap_lines must be >= 0"))
	}
	if c.Filter.MaxFileSize < 0 {
		errs = append(errs, errors.New("max_file_size must be >= 0"))
	}
	if c.Filter.SniffBytes < 0 {
		errs = append(errs, errors.New("filter.sniff_bytes must be >= 0"))
	}
	if c.Skeleton.MaxDepth < 0 {
		errs = append(errs, errors.New("skeleton.max_depth must be >= 0"))
	}
	if c.Storage.Enabled && c.Storage.DBPath == "" {
		errs = append(errs, errors.New("storage.db_path is required when storage is enabled"))
	}
	return errors.Join(errs...)
}

// WithRoot returns a copy of c analyzing root instead
func (c Config) WithRoot(root string) Config {
	c.Root = root
	return c
}

// AbsRoot returns the absolute repository root
func (c Config) AbsRoot() (string, error) {
	return filepath.Abs(c.Root)
}

// Load resolves the configuration from v. Flags bound with BindFlags take
// precedence over the environment, which takes precedence over the config
// file and the defaults.
func Load(v *viper.Viper, configFile string) (Config, error) {
	setDefaults(v)
	bindEnv(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("codefactory")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every default so viper knows each key
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("root", d.Root)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("filter.deny_dirs", d.Filter.DenyDirs)
	v.SetDefault("filter.include_extensions", d.Filter.IncludeExtensions)
	v.SetDefault("filter.binary_extensions", d.Filter.BinaryExtensions)
	v.SetDefault("filter.ignore_globs", d.Filter.IgnoreGlobs)
	v.SetDefault("filter.ignore_file", d.Filter.IgnoreFile)
	v.SetDefault("filter.max_file_size", d.Filter.MaxFileSize)
	v.SetDefault("filter.sniff_bytes", d.Filter.SniffBytes)
	v.SetDefault("chunking.target_size", d.Chunking.TargetSize)
	v.SetDefault("chunking.tolerance_factor", d.Chunking.ToleranceFactor)
	v.SetDefault("chunking.boundary", d.Chunking.Boundary)
	v.SetDefault("chunking.overlap_lines", d.Chunking.OverlapLines)
	v.SetDefault("skeleton.budget", d.Skeleton.Budget)
	v.SetDefault("skeleton.max_depth", d.Skeleton.MaxDepth)
	v.SetDefault("storage.enabled", d.Storage.Enabled)
	v.SetDefault("storage.db_path", d.Storage.DBPath)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// bindEnv binds the historical variable names and the CODEFACTORY_ prefix
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("CODEFACTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("root", "CODEFACTORY_ROOT", "TARGET_REPO_PATH")
	_ = v.BindEnv("output_dir", "CODEFACTORY_OUTPUT_DIR", "OUTPUT_DIR")
	_ = v.BindEnv("chunking.target_size", "CODEFACTORY_CHUNKING_TARGET_SIZE", "MAX_CHUNK_CHARS")
}

// BindFlags registers the analysis flags on cmd and binds them to v
func BindFlags(cmd *cobra.Command, v *viper.Viper) error {
	d := Default()
	flags := cmd.Flags()
	flags.String("root", d.Root, "Path to the repository to analyze")
	flags.String("output-dir", d.OutputDir, "Directory receiving the analysis artifacts")
	flags.Int("workers", d.Workers, "Parallel file readers (1 reads sequentially)")
	flags.StringSlice("deny-dirs", d.Filter.DenyDirs, "Directory names pruned from the walk")
	flags.StringSlice("include-ext", nil, "Only analyze files with these extensions (e.g. .go,.py)")
	flags.StringSlice("ignore", nil, "Ignore globs (doublestar syntax, gitignore-like)")
	flags.Int64("max-file-size", d.Filter.MaxFileSize, "Files larger than this many bytes are excluded as oversized")
	flags.Int("chunk-size", d.Chunking.TargetSize, "Target chunk size in bytes")
	flags.Float64("chunk-tolerance", d.Chunking.ToleranceFactor, "How far past the target a chunk may grow to reach a block boundary")
	flags.String("boundary", d.Chunking.Boundary, "Boundary policy: auto (language aware) or lines")
	flags.Int("overlap-lines", d.Chunking.OverlapLines, "Lines of the previous chunk attached as context")
	flags.Int("skeleton-budget", d.Skeleton.Budget, "Maximum skeleton size in bytes (0 disables the limit)")
	flags.Int("skeleton-depth", d.Skeleton.MaxDepth, "Maximum expanded skeleton depth (0 means unlimited)")
	flags.Bool("store", d.Storage.Enabled, "Persist chunks to the SQLite chunk store")
	flags.String("db", d.Storage.DBPath, "SQLite chunk store path")

	bindings := [][2]string{
		{"root", "root"},
		{"output_dir", "output-dir"},
		{"workers", "workers"},
		{"filter.deny_dirs", "deny-dirs"},
		{"filter.include_extensions", "include-ext"},
		{"filter.ignore_globs", "ignore"},
		{"filter.max_file_size", "max-file-size"},
		{"chunking.target_size", "chunk-size"},
		{"chunking.tolerance_factor", "chunk-tolerance"},
		{"chunking.boundary", "boundary"},
		{"chunking.overlap_lines", "overlap-lines"},
		{"skeleton.budget", "skeleton-budget"},
		{"skeleton.max_depth", "skeleton-depth"},
		{"storage.enabled", "store"},
		{"storage.db_path", "db"},
	}
	for _, b := range bindings {
		if err := v.BindPFlag(b[0], flags.Lookup(b[1])); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", b[1], err)
		}
	}
	return nil
}

// BindLogFlags registers the logging flags shared by every command
func BindLogFlags(cmd *cobra.Command, v *viper.Viper) error {
	d := Default()
	flags := cmd.PersistentFlags()
	flags.String("log-level", d.Log.Level, "Log level: debug, info, warn, error")
	flags.String("log-format", d.Log.Format, "Log format: console or json")
	if err := v.BindPFlag("log.level", flags.Lookup("log-level")); err != nil {
		return err
	}
	return v.BindPFlag("log.format", flags.Lookup("log-format"))
}
