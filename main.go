package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/dehook/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(ctx, os.Args[2:])
	case "status", "ls":
		runStatus(ctx, os.Args[2:])
	case "get":
		runGet(ctx, os.Args[2:])
	case "set":
		runSet(ctx, os.Args[2:])
	case "enable":
		runEnabled(ctx, "enable", true, os.Args[2:])
	case "disable":
		runEnabled(ctx, "disable", false, os.Args[2:])
	case "autorevert":
		runAutoRevert(ctx, os.Args[2:])
	case "unlock":
		runUnlock(ctx, os.Args[2:])
	case "extend":
		runExtend(ctx, os.Args[2:])
	case "passwd":
		runPasswd(ctx, os.Args[2:])
	case "reset":
		runReset(ctx, os.Args[2:])
	case "diff":
		runDiff(ctx, os.Args[2:])
	case "watch":
		runWatch(ctx, os.Args[2:])
	case "keyring":
		runKeyring(ctx, os.Args[2:])
	case "compact":
		runCompact(ctx, os.Args[2:])
	case "completion":
		runCompletion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// clientFlags registers the flags every consumer command accepts
type clientFlags struct {
	config *string
	addr   *string
}

func newClientFlags(fs *flag.FlagSet) clientFlags {
	return clientFlags{
		config: fs.String("config", "", "Config file (default $DEHOOK_CONFIG)"),
		addr:   fs.String("addr", "", "Daemon address (overrides config)"),
	}
}

func (f clientFlags) connect() *cmd.Env {
	return cmd.Connect(*f.config, *f.addr)
}

func parse(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	config := fs.String("config", "", "Config file (default $DEHOOK_CONFIG)")
	addr := fs.String("addr", "", "Listen address (overrides config)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	parse(fs, args)

	cmd.Serve(ctx, *config, *addr, *logLevel)
}

func runStatus(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	cf := newClientFlags(fs)
	parse(fs, args)

	cmd.Status(ctx, cf.connect())
}

func runGet(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	cf := newClientFlags(fs)
	parse(fs, args)

	cmd.Get(ctx, cf.connect(), fs.Args())
}

func runSet(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	cf := newClientFlags(fs)
	parse(fs, args)

	cmd.Set(ctx, cf.connect(), fs.Args())
}

func runEnabled(ctx context.Context, name string, enabled bool, args []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cf := newClientFlags(fs)
	parse(fs, args)

	cmd.SetEnabled(ctx, cf.connect(), enabled)
}

func runAutoRevert(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("autorevert", flag.ExitOnError)
	cf := newClientFlags(fs)
	on := fs.Bool("on", false, "Enable auto-revert")
	off := fs.Bool("off", false, "Disable auto-revert")
	minutes := fs.Int("minutes", 0, "Unlock window length in minutes")
	parse(fs, args)

	cmd.AutoRevert(ctx, cf.connect(), *on, *off, *minutes)
}

func runUnlock(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("unlock", flag.ExitOnError)
	cf := newClientFlags(fs)
	parse(fs, args)

	cmd.Unlock(ctx, cf.connect())
}

func runExtend(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("extend", flag.ExitOnError)
	cf := newClientFlags(fs)
	parse(fs, args)

	cmd.Extend(ctx, cf.connect())
}

func runPasswd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	cf := newClientFlags(fs)
	parse(fs, args)

	cmd.Passwd(ctx, cf.connect())
}

func runReset(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	cf := newClientFlags(fs)
	force := fs.Bool("force", false, "Reset without confirmation")
	parse(fs, args)

	cmd.Reset(ctx, cf.connect(), *force)
}

func runDiff(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	cf := newClientFlags(fs)
	parse(fs, args)

	cmd.Diff(ctx, cf.connect())
}

func runWatch(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cf := newClientFlags(fs)
	parse(fs, args)

	cmd.Watch(ctx, cf.connect())
}

func runKeyring(_ context.Context, args []string) {
	fs := flag.NewFlagSet("keyring", flag.ExitOnError)
	cf := newClientFlags(fs)
	parse(fs, args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: dehook keyring <save|delete|status>")
		os.Exit(1)
	}

	env := cf.connect()
	switch fs.Arg(0) {
	case "save":
		cmd.KeyringSave(env)
	case "delete":
		cmd.KeyringDelete(env)
	case "status":
		cmd.KeyringStatus(env)
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring subcommand: %s\n", fs.Arg(0))
		fmt.Fprintln(os.Stderr, "Usage: dehook keyring <save|delete|status>")
		os.Exit(1)
	}
}

func runCompact(_ context.Context, args []string) {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	config := fs.String("config", "", "Config file (default $DEHOOK_CONFIG)")
	parse(fs, args)

	cmd.Compact(*config)
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: dehook completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("dehook - Password-protected content filtering settings")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  dehook <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve       Run the settings daemon")
	fmt.Println("  ls, status  Show filtering, protection and auto-revert state")
	fmt.Println("  get         Print hiding flags")
	fmt.Println("  set         Change hiding flags (name=true|false)")
	fmt.Println("  enable      Turn filtering on")
	fmt.Println("  disable     Turn filtering off")
	fmt.Println("  autorevert  Change the auto-revert policy")
	fmt.Println("  unlock      Unlock settings with the password")
	fmt.Println("  extend      Restart the unlock window")
	fmt.Println("  passwd      Set or change the password")
	fmt.Println("  reset       Restore default hiding settings and lock")
	fmt.Println("  diff        Compare hiding flags with the defaults")
	fmt.Println("  watch       Print settings changes as they happen")
	fmt.Println("  keyring     Manage password in OS keyring")
	fmt.Println("  compact     Compact the settings database")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  dehook serve &                       # Start the daemon")
	fmt.Println("  dehook passwd                        # Protect settings with a password")
	fmt.Println("  dehook unlock                        # Open the unlock window")
	fmt.Println("  dehook set hideComments=true         # Change a flag while unlocked")
	fmt.Println()
	fmt.Println("Use 'dehook help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "serve":
		fmt.Println("dehook serve [--config <file>] [--addr <host:port>] [--log-level <level>]")
		fmt.Println()
		fmt.Println("Runs the settings daemon. It owns the settings store, enforces the")
		fmt.Println("password lock, reverts to the restrictive defaults when the unlock")
		fmt.Println("window expires, and broadcasts every change to connected consumers.")
		fmt.Println("A window that expired while the daemon was down is enforced at startup.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --config      YAML config file (default $DEHOOK_CONFIG)")
		fmt.Println("  --addr        Listen address (default 127.0.0.1:7878)")
		fmt.Println("  --log-level   debug, info, warn or error")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  dehook serve")
		fmt.Println("  DEHOOK_DSN=postgres://localhost/dehook dehook serve")
	case "status", "ls":
		fmt.Println("dehook status")
		fmt.Println()
		fmt.Println("Shows whether filtering is on, the protection state, time left in the")
		fmt.Println("unlock window, the auto-revert policy and whether the password is in")
		fmt.Println("the keyring.")
		fmt.Println()
		fmt.Println("Does not require a password.")
	case "get":
		fmt.Println("dehook get [<name> [name...]]")
		fmt.Println()
		fmt.Println("Prints all hiding flags, or only the named ones.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  dehook get")
		fmt.Println("  dehook get hideShorts hideComments")
	case "set":
		fmt.Println("dehook set <name>=<true|false> [name=value...]")
		fmt.Println()
		fmt.Println("Changes hiding flags. Rejected while settings are locked.")
		fmt.Println("The name 'enabled' switches filtering as a whole.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  dehook set hideShorts=false")
		fmt.Println("  dehook set hideComments=on hideChat=off")
	case "enable", "disable":
		fmt.Println("dehook enable | dehook disable")
		fmt.Println()
		fmt.Println("Turns filtering on or off. Rejected while settings are locked.")
	case "autorevert":
		fmt.Println("dehook autorevert [--on|--off] [--minutes <n>]")
		fmt.Println()
		fmt.Println("Changes how long settings stay unlocked before the daemon reverts")
		fmt.Println("them to the restrictive defaults. Rejected while settings are locked.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --on          Enable auto-revert")
		fmt.Println("  --off         Disable auto-revert")
		fmt.Println("  --minutes     Unlock window length, must be positive")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  dehook autorevert --minutes 15")
		fmt.Println("  dehook autorevert --off")
	case "unlock":
		fmt.Println("dehook unlock")
		fmt.Println()
		fmt.Println("Verifies the password with the daemon and opens the unlock window.")
		fmt.Println("The password is taken from $DEHOOK_PASSWORD, the OS keyring or a prompt.")
	case "extend":
		fmt.Println("dehook extend")
		fmt.Println()
		fmt.Println("Restarts the unlock window from now. Only works while unlocked.")
	case "passwd":
		fmt.Println("dehook passwd")
		fmt.Println()
		fmt.Println("Sets the password, or changes it after asking for the current one.")
		fmt.Println("Settings are locked afterwards. An existing keyring entry is updated.")
	case "reset":
		fmt.Println("dehook reset [--force]")
		fmt.Println()
		fmt.Println("Restores the restrictive hiding defaults and locks. Works in any state,")
		fmt.Println("without a password.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --force       Reset without confirmation")
	case "diff":
		fmt.Println("dehook diff")
		fmt.Println()
		fmt.Println("Shows which hiding flags differ from the restrictive defaults.")
	case "watch":
		fmt.Println("dehook watch")
		fmt.Println()
		fmt.Println("Prints a line for every settings change the daemon broadcasts,")
		fmt.Println("including automatic reverts, until interrupted.")
	case "keyring":
		fmt.Println("dehook keyring <save|delete|status>")
		fmt.Println()
		fmt.Println("Manages the password stored in the OS keyring for this daemon address.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  dehook keyring save")
		fmt.Println("  dehook keyring status")
	case "compact":
		fmt.Println("dehook compact [--config <file>]")
		fmt.Println()
		fmt.Println("Compacts the bolt settings database to reclaim unused disk space.")
		fmt.Println("Stop the daemon first.")
	case "completion":
		fmt.Println("dehook completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(dehook completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(dehook completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  dehook completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
