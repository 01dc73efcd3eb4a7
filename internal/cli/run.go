package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/aretw0/keyseq"
	"github.com/aretw0/keyseq/internal/logging"
	"github.com/aretw0/keyseq/pkg/adapters/process"
	"github.com/aretw0/keyseq/pkg/adapters/terminal"
	"github.com/aretw0/keyseq/pkg/config"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/input"
	"github.com/aretw0/keyseq/pkg/recorder"
	"github.com/aretw0/keyseq/pkg/registry"
)

// ListenOptions contains all the configuration for the listen command.
type ListenOptions struct {
	Definition domain.Definition
	Config     config.Config
	Input      io.Reader
	Output     io.Writer
	Logger     *slog.Logger
	Hooks      domain.LifecycleHooks
	Quiet      bool
}

// RunListen watches the terminal (and gamepads when configured) until the
// input ends, ctx is cancelled or, in once mode, the first match. It returns
// the number of matches.
func RunListen(ctx context.Context, opts ListenOptions) (int, error) {
	in, out, logger := streams(opts.Input, opts.Output, opts.Logger)
	say := func(format string, args ...any) {
		if !opts.Quiet {
			printSystemMessage(out, format, args...)
		}
	}

	src := terminal.New(terminal.WithInput(in), terminal.WithLogger(logger))
	defer src.Close()

	lopts, release := ListenerOptions(opts.Config, logger)
	defer release()

	var action *process.Runner
	if exec := opts.Config.Exec; exec.Command != "" {
		r, err := process.NewRunner(exec.Command, exec.Args,
			process.WithTimeout(exec.Timeout),
			process.WithLogger(logger),
		)
		if err != nil {
			return 0, err
		}
		defer r.Wait()
		action = r
	}

	var matches atomic.Int64
	finished := make(chan struct{}, 1)
	onMatch := func() {
		n := matches.Add(1)
		fmt.Fprintf(out, "*** %s matched (%d) ***\r\n", opts.Definition.Name, n)
		if action != nil {
			action.Go(ctx, process.Match{
				Sequence: opts.Definition.Name,
				Keys:     opts.Definition.Keys,
				Count:    int(n),
			})
		}
		if opts.Config.Once {
			select {
			case finished <- struct{}{}:
			default:
			}
		}
	}

	lopts = append(lopts,
		keyseq.WithName(opts.Definition.Name),
		keyseq.WithKeyboard(src),
		keyseq.WithOnProgress(func(position, total int) { say("%d/%d", position, total) }),
		keyseq.WithOnMismatch(func() { say("wrong key, starting over") }),
		keyseq.WithOnTimeout(func() { say("too slow, starting over") }),
		keyseq.WithLifecycleHooks(opts.Hooks),
	)
	l, err := keyseq.New(opts.Definition.Keys, onMatch, lopts...)
	if err != nil {
		return 0, err
	}
	defer l.Destroy()

	// Subscribe before reading so no key is lost.
	l.Start()
	if err := src.Open(); err != nil {
		return 0, err
	}
	say("Listening for %s (%s). Ctrl+C to quit.", opts.Definition.Name, opts.Definition.Keys)

	select {
	case <-ctx.Done():
	case <-src.Done():
	case <-finished:
	}

	err = src.Err()
	if errors.Is(err, io.EOF) || errors.Is(err, terminal.ErrInterrupted) {
		err = nil
	}
	return int(matches.Load()), err
}

// RecordOptions contains all the configuration for the record command.
type RecordOptions struct {
	Name        string
	Description string
	Registry    *registry.Registry
	Input       io.Reader
	Output      io.Writer
	Logger      *slog.Logger
}

// ErrRecordingAborted is returned when Ctrl+C ends a recording.
var ErrRecordingAborted = errors.New("recording aborted")

// RunRecord captures keys from the terminal until Ctrl+D or end of input
// and saves them under opts.Name.
func RunRecord(ctx context.Context, opts RecordOptions) (domain.Definition, error) {
	in, out, logger := streams(opts.Input, opts.Output, opts.Logger)
	if err := domain.ValidateName(opts.Name); err != nil {
		return domain.Definition{}, err
	}

	rec := recorder.New()
	rec.Start()

	src := terminal.New(terminal.WithInput(in), terminal.WithLogger(logger))
	defer src.Close()
	sub, err := src.Subscribe(func(ev domain.KeyEvent) {
		tok := input.NormalizeKey(ev)
		if !rec.Record(tok) {
			return
		}
		if tok.Alt != "" {
			fmt.Fprintf(out, "%s ", tok.Alt)
		} else {
			fmt.Fprintf(out, "%s ", tok.Symbol)
		}
	})
	if err != nil {
		return domain.Definition{}, err
	}
	defer sub.Close()

	if err := src.Open(); err != nil {
		return domain.Definition{}, err
	}
	printSystemMessage(out, "Recording %q. Ctrl+D to save, Ctrl+C to abort.", opts.Name)

	select {
	case <-ctx.Done():
		return domain.Definition{}, ErrRecordingAborted
	case <-src.Done():
	}
	fmt.Fprint(out, "\r\n")
	if errors.Is(src.Err(), terminal.ErrInterrupted) {
		return domain.Definition{}, ErrRecordingAborted
	}
	if err := src.Err(); err != nil && !errors.Is(err, io.EOF) {
		return domain.Definition{}, err
	}

	seq, err := rec.Stop()
	if err != nil {
		return domain.Definition{}, err
	}
	def := domain.Definition{Name: opts.Name, Description: opts.Description, Keys: seq}
	if err := opts.Registry.Save(ctx, def); err != nil {
		return domain.Definition{}, err
	}
	printSystemMessage(out, "Saved %s: %s", def.Name, def.Keys)
	return def, nil
}

func streams(in io.Reader, out io.Writer, logger *slog.Logger) (io.Reader, io.Writer, *slog.Logger) {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return in, out, logger
}
