package execx

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Result guarda o resultado de uma execução de subprocesso.
type Result struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
	ExitCode int
}

// Códigos sintéticos para falhas fora do controle da ferramenta.
const (
	ExitTimeout  = 124
	ExitNotFound = 127
)

// LookPath resolve um binário no PATH.
func LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run executa um comando com timeout via contexto, capturando stdout/stderr.
// Timeout vira ExitCode 124; binário ausente vira 127.
func Run(ctx context.Context, timeout time.Duration, dir, name string, args ...string) (Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			res.ExitCode = ExitTimeout
		case errors.Is(err, exec.ErrNotFound):
			res.ExitCode = ExitNotFound
		case errors.As(err, &exitErr):
			res.ExitCode = exitErr.ExitCode()
			// exit code != 0 não é erro de execução; o adapter decide o que aceitar
			return res, nil
		default:
			res.ExitCode = 1
		}
	}

	return res, err
}
