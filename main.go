// Command vid-dup-finder finds near-duplicate video files by
// perceptual fingerprint, either across one set of files or between a
// candidate set and a fixed reference set.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Farmadupe/vid-dup-finder/internal/apperr"
	"github.com/Farmadupe/vid-dup-finder/internal/config"
	"github.com/Farmadupe/vid-dup-finder/internal/dupfinder"
	"github.com/Farmadupe/vid-dup-finder/internal/fileset"
	"github.com/Farmadupe/vid-dup-finder/internal/fingerprint"
	"github.com/Farmadupe/vid-dup-finder/internal/frames"
	"github.com/Farmadupe/vid-dup-finder/internal/output"
	"github.com/Farmadupe/vid-dup-finder/internal/probe"
	"github.com/Farmadupe/vid-dup-finder/internal/search"
	"github.com/Farmadupe/vid-dup-finder/internal/videocache"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cfg, err := parseArgs(argv)
	if err != nil {
		slog.Error("argument error", "error", err)
		return 1
	}

	level := slog.LevelInfo
	if cfg.Quiet {
		level = slog.LevelWarn
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	slog.Info("starting", "run_id", cfg.RunID)

	if err := frames.CheckAvailable(); err != nil {
		slog.Error("fatal", "error", (&apperr.DecoderNotFoundError{Binary: "ffmpeg"}).Error())
		return 1
	}

	if fatal := runPipeline(cfg); fatal != nil {
		slog.Error("fatal", "error", fatal)
		return 1
	}
	return 0
}

func parseArgs(argv []string) (*config.Config, error) {
	fs := flag.NewFlagSet("vid-dup-finder", flag.ContinueOnError)

	files := fs.String("files", "", "comma-separated candidate directories/files to search")
	withRefs := fs.String("with-refs", "", "comma-separated reference directories/files to search against")
	exclude := fs.String("exclude", "", "comma-separated paths excluded from both sets")
	excludeExts := fs.String("exclude-exts", "png,jpg,bmp,jpeg,txt,text,db", "comma-separated extensions excluded from both sets")
	cacheFile := fs.String("cache-file", "", "path to the fingerprint cache file")
	noUpdateCache := fs.Bool("no-update-cache", false, "do not reconcile the cache with the filesystem before searching")
	updateCacheOnly := fs.Bool("update-cache-only", false, "reconcile the cache and exit, without searching")
	tolerance := fs.Float64("tolerance", 0.05, "match tolerance in [0,1]")
	searchUnique := fs.Bool("search-unique", false, "also report candidate paths that matched nothing")
	jsonOutput := fs.Bool("json-output", false, "emit results as JSON instead of text")
	thumbnailsDir := fs.String("match-thumbnails-dir", "", "if set, write a visual summary PNG per match group to this directory")
	quiet := fs.Bool("quiet", false, "suppress informational logging")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	fs.String("args-file", "", "read additional arguments, one flag per line, from this file")

	// A first pass finds --args-file before the real parse, since its
	// expansion must be spliced into argv ahead of everything else.
	pre := flag.NewFlagSet("vid-dup-finder-pre", flag.ContinueOnError)
	pre.Usage = func() {}
	preArgsFile := pre.String("args-file", "", "")
	_ = pre.Parse(argv)

	finalArgv := argv
	if *preArgsFile != "" {
		if _, err := os.Stat(*preArgsFile); err != nil {
			return nil, apperr.ErrArgsFileNotFound
		}
		expanded, err := config.ExpandArgsFile(*preArgsFile)
		if err != nil {
			return nil, err
		}
		finalArgv = append(expanded, argv...)
	}

	if err := fs.Parse(finalArgv); err != nil {
		return nil, err
	}

	if *tolerance < 0 || *tolerance > 1 {
		return nil, apperr.ErrParseTolerance
	}

	cfg := config.New()
	cfg.Files = config.SplitCSV(*files)
	cfg.WithRefs = config.SplitCSV(*withRefs)
	cfg.Exclude = config.SplitCSV(*exclude)
	cfg.ExcludeExts = config.SplitCSV(*excludeExts)
	cfg.NoUpdateCache = *noUpdateCache
	cfg.UpdateCacheOnly = *updateCacheOnly
	cfg.Tolerance = *tolerance
	cfg.SearchUnique = *searchUnique
	cfg.JSONOutput = *jsonOutput
	cfg.ThumbnailsDir = *thumbnailsDir
	cfg.Quiet = *quiet
	cfg.Verbose = *verbose

	cfg.CacheFile = *cacheFile
	if cfg.CacheFile == "" {
		dir, err := config.DefaultCacheDir()
		if err != nil {
			return nil, err
		}
		cfg.CacheFile = filepath.Join(dir, "vid-dup-finder-cache.bin")
	}

	for _, f := range cfg.Files {
		for _, r := range cfg.WithRefs {
			if filepath.Clean(f) == filepath.Clean(r) {
				return nil, apperr.ErrPathInFilesAndRefs
			}
		}
	}

	return cfg, nil
}

func processPath(path string) fingerprint.Entry {
	stats, statsErr := probe.Probe(path)
	if statsErr != nil {
		return fingerprint.Entry{Kind: fingerprint.KindNotVideo, Err: statsErr.Error()}
	}

	sampled, hashErr := frames.Sample(path)
	var fp fingerprint.Fingerprint
	if hashErr == nil {
		fp, hashErr = fingerprint.FromFrames(sampled)
	}

	return fingerprint.NewEntry(fp, hashErr, stats, nil)
}

// logRunSummary emits a debug-level line reporting the total size of
// candidate files scanned and the total playtime duplicated, in
// human-readable units.
func logRunSummary(candPaths []string, stats func(string) probe.Metadata, groups []output.GroupView) {
	var totalBytes int64
	for _, p := range candPaths {
		totalBytes += stats(p).SizeBytes
	}

	var dupSecs float64
	for _, g := range groups {
		for _, d := range g.Duplicates {
			dupSecs += stats(d).DurationSecs
		}
	}

	slog.Debug("run summary",
		"scanned_bytes", output.HumanizeBytes(totalBytes),
		"duplicated_runtime", output.HumanizeDuration(dupSecs),
		"groups", len(groups),
	)
}

func checkRootsExist(flagName string, roots []string) error {
	for _, r := range roots {
		if _, err := os.Stat(r); err != nil {
			return &apperr.PathNotFoundError{Flag: flagName, Path: r}
		}
	}
	return nil
}

func runPipeline(cfg *config.Config) error {
	cache, err := videocache.Open(cfg.CacheFile, processPath)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}

	if err := checkRootsExist("--files", cfg.Files); err != nil {
		return err
	}
	if err := checkRootsExist("--with-refs", cfg.WithRefs); err != nil {
		return err
	}
	if err := checkRootsExist("--exclude", cfg.Exclude); err != nil {
		return err
	}

	candSet := fileset.FileSet{Sources: cfg.Files, Excludes: cfg.Exclude, ExcludedExts: cfg.ExcludeExts}
	refSet := fileset.FileSet{Sources: cfg.WithRefs, Excludes: cfg.Exclude, ExcludedExts: cfg.ExcludeExts}

	if len(cfg.WithRefs) > 0 {
		if err := fileset.ResolveShadowing(&candSet, &refSet); err != nil {
			return err
		}
	}

	if !cfg.NoUpdateCache {
		if err := updateCache(cache, candSet); err != nil {
			return err
		}
		if len(cfg.WithRefs) > 0 {
			if err := updateCache(cache, refSet); err != nil {
				return err
			}
		}
		if err := cache.Save(); err != nil {
			slog.Warn("cache save failed", "error", err)
		}
	}

	if cfg.UpdateCacheOnly {
		return nil
	}

	tol := fingerprint.ScaleTolerance(cfg.Tolerance)
	statsLookup := func(path string) probe.Metadata {
		e, _ := cache.Fetch(path)
		return e.Stats
	}

	candPaths := candSet.EnumerateFromCacheKeys(cache.Keys())
	candItems := itemsFromCache(cache, candPaths)

	var matched []string
	allGroups := make([]output.GroupView, 0)

	if len(cfg.WithRefs) > 0 {
		refPaths := refSet.EnumerateFromCacheKeys(cache.Keys())
		refItems := itemsFromCache(cache, refPaths)
		refBackend := search.New(search.KindBKTree, refItems, false)

		raw := dupfinder.FindWithRefs(refBackend, candItems, tol, statsLookup, false)
		for _, g := range raw {
			for _, aff := range expand(g, tol) {
				allGroups = append(allGroups, toView(aff))
				for _, m := range aff.Duplicates {
					matched = append(matched, m.Path)
				}
			}
		}
	} else {
		candBackend := search.New(search.KindBKTree, candItems, false)
		raw := dupfinder.FindAll(candBackend, tol, statsLookup)
		for _, g := range raw {
			for _, aff := range expand(g, tol) {
				allGroups = append(allGroups, toView(aff))
				for _, m := range aff.Duplicates {
					matched = append(matched, m.Path)
				}
			}
		}
	}

	result := output.Result{Groups: allGroups}
	if cfg.SearchUnique {
		result.Unique = setDifference(candPaths, matched)
	}

	logRunSummary(candPaths, statsLookup, allGroups)

	if cfg.ThumbnailsDir != "" {
		writeThumbnails(cfg.ThumbnailsDir, allGroups)
	}

	if cfg.JSONOutput {
		return output.WriteJSON(os.Stdout, result)
	}
	output.WriteText(os.Stdout, result)
	return nil
}
