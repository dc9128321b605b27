// Command globwalk matches a set of portable glob patterns against a
// directory tree, pruning subtrees that can't contain a match rather than
// opening every directory on disk.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"

	"github.com/thought-machine/globwalk/src/cli"
	"github.com/thought-machine/globwalk/src/cli/logging"
	"github.com/thought-machine/globwalk/src/glob"
	"github.com/thought-machine/globwalk/src/globset"
	"github.com/thought-machine/globwalk/src/metrics"
	"github.com/thought-machine/globwalk/src/walk"
	"github.com/thought-machine/globwalk/src/watch"
)

var log = logging.Log

var opts struct {
	Usage string `usage:"globwalk matches portable glob patterns against a directory tree.\n\nPatterns never touch the filesystem to validate; matching prunes directories the pattern set can't reach."`

	Patterns struct {
		Include []string `short:"i" long:"include" description:"Glob pattern to match; may be repeated. At least one is required."`
	} `group:"Pattern options"`

	WalkFlags struct {
		Root           string       `short:"r" long:"root" default:"." description:"Directory to walk."`
		FollowSymlinks bool         `long:"follow_symlinks" description:"Descend into symlinked directories."`
		Unsorted       bool         `long:"unsorted" description:"Don't sort sibling entries before visiting them."`
		Watch          bool         `short:"w" long:"watch" description:"Re-run the walk whenever something under root changes."`
		WatchDebounce  cli.Duration `long:"watch_debounce" default:"200ms" description:"How long to wait for a burst of filesystem events to settle before re-walking."`
	} `group:"Walk options"`

	OutputFlags struct {
		Verbosity  cli.Verbosity `short:"v" long:"verbosity" description:"Verbosity of output (error, warning, notice, info, debug)" default:"warning"`
		MetricsURL cli.URL       `long:"metrics_url" description:"Prometheus pushgateway URL to report build/walk metrics to."`
	} `group:"Output options"`
}

const version = "0.1.0"

func main() {
	cli.ParseFlagsOrDie("globwalk", version, &opts)
	cli.InitLogging(opts.OutputFlags.Verbosity)
	metrics.InitPushGateway(string(opts.OutputFlags.MetricsURL), 5*time.Second)
	defer metrics.Stop()

	if len(opts.Patterns.Include) == 0 {
		log.Fatalf("At least one --include pattern is required")
	}

	matcher, err := buildMatcher(opts.Patterns.Include)
	if err != nil {
		log.Fatalf("%s", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		<-sig
		cancel()
	}()

	run := func() int {
		return runWalk(ctx, opts.WalkFlags.Root, matcher)
	}

	if opts.WalkFlags.Watch {
		run()
		err := watch.OnChange(ctx, opts.WalkFlags.Root, time.Duration(opts.WalkFlags.WatchDebounce), func() {
			run()
		})
		if err != nil && ctx.Err() == nil {
			log.Fatalf("Watch failed: %s", err)
		}
		os.Exit(0)
	}
	os.Exit(run())
}

func buildMatcher(patterns []string) (*globset.DirMatcher, error) {
	compiled, err := glob.ParseAll(patterns)
	if err != nil {
		return nil, err
	}
	return globset.Build(compiled)
}

func runWalk(ctx context.Context, root string, matcher *globset.DirMatcher) int {
	if !matcher.HasPrefixDFA() {
		log.Warning("Pattern set exceeded the prefix DFA size budget; every directory will be visited")
	}

	var matched, dirs int
	var walkErrs error
	opts2 := walkOptions()

	err := walk.Walk(ctx, root, matcher, func(e walk.Entry, werr error) error {
		if werr != nil {
			walkErrs = multierror.Append(walkErrs, werr)
			return nil
		}
		if e.Dirent.IsDir() {
			dirs++
			return nil
		}
		matched++
		fmt.Println(e.Path)
		return nil
	}, opts2...)

	if err != nil {
		log.Error("Walk aborted: %s", err)
		return 1
	}
	if walkErrs != nil {
		log.Warning("%s", walkErrs)
	}
	log.Notice("Matched %s across %s", humanize.Comma(int64(matched)), humanize.Comma(int64(dirs)))
	return 0
}

func walkOptions() []walk.Option {
	var o []walk.Option
	if opts.WalkFlags.FollowSymlinks {
		o = append(o, walk.FollowSymlinks())
	}
	if opts.WalkFlags.Unsorted {
		o = append(o, walk.Unsorted())
	}
	return o
}
