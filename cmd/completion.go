package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_dehook() {
    local cur prev words cword
    _init_completion || return

    local commands="serve status ls get set enable disable autorevert unlock extend passwd reset diff watch keyring compact help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        serve)
            COMPREPLY=($(compgen -W "--config --addr --log-level" -- "$cur"))
            ;;
        get)
            # Complete with setting names from the daemon
            local names
            names=$(dehook get 2>/dev/null | sed 's/:.*//')
            COMPREPLY=($(compgen -W "$names" -- "$cur"))
            ;;
        set)
            local names
            names=$(dehook get 2>/dev/null | sed 's/:.*/=/')
            compopt -o nospace
            COMPREPLY=($(compgen -W "$names" -- "$cur"))
            ;;
        autorevert)
            COMPREPLY=($(compgen -W "--on --off --minutes" -- "$cur"))
            ;;
        reset)
            COMPREPLY=($(compgen -W "--force" -- "$cur"))
            ;;
        keyring)
            COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _dehook dehook
`

const zshCompletion = `#compdef dehook

_dehook() {
    local -a commands
    commands=(
        'serve:Run the settings daemon'
        'status:Show filtering and protection status'
        'get:Print hiding flags'
        'set:Change hiding flags'
        'enable:Turn filtering on'
        'disable:Turn filtering off'
        'autorevert:Change the auto-revert policy'
        'unlock:Unlock settings with the password'
        'extend:Restart the unlock window'
        'passwd:Set or change the password'
        'reset:Restore defaults and lock'
        'diff:Compare hiding flags with defaults'
        'watch:Print settings changes as they happen'
        'keyring:Manage password in OS keyring'
        'compact:Compact the settings database'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'dehook commands' commands
            ;;
        args)
            case "${words[2]}" in
                serve)
                    _arguments \
                        '--config[Config file]:file:_files' \
                        '--addr[Listen address]' \
                        '--log-level[Log level]:level:(debug info warn error)'
                    ;;
                get)
                    _arguments '*:setting:_dehook_settings'
                    ;;
                set)
                    _arguments '*:setting:_dehook_assignments'
                    ;;
                autorevert)
                    _arguments \
                        '--on[Enable auto-revert]' \
                        '--off[Disable auto-revert]' \
                        '--minutes[Unlock window length]'
                    ;;
                reset)
                    _arguments '--force[Reset without confirmation]'
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'dehook commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_dehook_settings() {
    local -a names
    names=(${(f)"$(dehook get 2>/dev/null | sed 's/:.*//')"})
    _describe -t names 'settings' names
}

_dehook_assignments() {
    local -a names
    names=(${(f)"$(dehook get 2>/dev/null | sed 's/:.*/=/')"})
    compadd -S '' -a names
}

_dehook "$@"
`

const fishCompletion = `# dehook fish completions

set -l commands serve status ls get set enable disable autorevert unlock extend passwd reset diff watch keyring compact help completion

complete -c dehook -f

# Commands
complete -c dehook -n "not __fish_seen_subcommand_from $commands" -a serve -d 'Run the settings daemon'
complete -c dehook -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show status'
complete -c dehook -n "not __fish_seen_subcommand_from $commands" -a get -d 'Print hiding flags'
complete -c dehook -n "not __fish_seen_subcommand_from $commands" -a set -d 'Change hiding flags'
complete -c dehook -n "not __fish_seen_subcommand_from $commands" -a enable -d 'Turn filtering on'
complete -c dehook -n "not __fish_seen_subcommand_from $commands" -a disable -d 'Turn filtering off'
complete -c dehook -n "not __fish_seen_subcommand_from $commands" -a autorevert -d 'Change auto-revert policy'
complete -c dehook -n "not __fish_seen_subcommand_from $commands" -a unlock -d 'Unlock settings'
complete -c dehook -n "not __fish_seen_subcommand_from $commands" -a extend -d 'Restart the unlock window'
complete -c dehook -n "not __fish_seen_subcommand_from $commands" -a passwd -d 'Set or change the password'
complete -c dehook -n "not __fish_seen_subcommand_from $commands" -a reset -d 'Restore defaults and lock'
complete -c dehook -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare with defaults'
complete -c dehook -n "not __fish_seen_subcommand_from $commands" -a watch -d 'Print settings changes'
complete -c dehook -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage password in OS keyring'
complete -c dehook -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact the database'
complete -c dehook -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c dehook -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# serve flags
complete -c dehook -n "__fish_seen_subcommand_from serve" -l config -r -F -d 'Config file'
complete -c dehook -n "__fish_seen_subcommand_from serve" -l addr -r -d 'Listen address'
complete -c dehook -n "__fish_seen_subcommand_from serve" -l log-level -r -a "debug info warn error" -d 'Log level'

# setting names
complete -c dehook -n "__fish_seen_subcommand_from get" -a "(dehook get 2>/dev/null | sed 's/:.*//')"
complete -c dehook -n "__fish_seen_subcommand_from set" -a "(dehook get 2>/dev/null | sed 's/:.*/=/')"

# autorevert flags
complete -c dehook -n "__fish_seen_subcommand_from autorevert" -l on -d 'Enable auto-revert'
complete -c dehook -n "__fish_seen_subcommand_from autorevert" -l off -d 'Disable auto-revert'
complete -c dehook -n "__fish_seen_subcommand_from autorevert" -l minutes -r -d 'Unlock window length'

# reset flags
complete -c dehook -n "__fish_seen_subcommand_from reset" -l force -d 'Reset without confirmation'

# keyring subcommands
complete -c dehook -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c dehook -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c dehook -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
