//go:build windows

package terminal

func startPTY(opts PTYOptions) (PTY, error) {
	return nil, allocError(opts.Shell, ErrPTYNotSupported)
}
