// Package cellog provides the structured logging conventions used
// across the cell core and its command-line tooling: a shared logrus
// logger plus helpers that attach a cell's identity as fields rather
// than formatting it into the message text.
package cellog

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/CynthiaCurtis/broxus-types/cell"
)

// Logger is the shared logger used by the cell core's collaborators
// (cellcache, cmd/cellinspect). Callers may reassign it (e.g. to change
// output format) before using any other helper in this package.
var Logger = newDefaultLogger()

func newDefaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel adjusts the shared logger's verbosity, accepting the same
// level names logrus.ParseLevel understands ("debug", "info", "warn",
// "error").
func SetLevel(name string) error {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

// WithCell returns a log entry carrying a cell's identity as
// structured fields: its representation hash, type, bit length and
// reference count.
func WithCell(c cell.Cell) *logrus.Entry {
	return Logger.WithFields(logrus.Fields{
		"cell_hash":  c.RepresentationHash().String(),
		"cell_type":  c.Type().String(),
		"cell_bits":  c.BitLen(),
		"cell_refs":  c.RefCount(),
		"cell_level": c.Descriptor().LevelMask().Level(),
	})
}

// WithHash returns a log entry carrying just a representation hash,
// for contexts where only the hash (not a live Cell) is available.
func WithHash(h cell.Hash) *logrus.Entry {
	return Logger.WithField("cell_hash", h.String())
}

// FinalizerOption binds the shared Logger to a cell.Finalizer built
// with cell.NewFinalizer, so finalization failures and exotic-cell
// successes are reported through the same logger as the rest of this
// package's callers. cell cannot depend on cellog directly (cellog
// already depends on cell, for WithCell), so this indirection is how
// the finalizer's own logging gets wired to it.
func FinalizerOption() cell.FinalizerOption {
	return cell.WithLogger(Logger)
}

// UsageTreeOption binds the shared Logger to a cell.UsageTree built
// with cell.NewUsageTree, for the same reason as FinalizerOption.
func UsageTreeOption() cell.UsageTreeOption {
	return cell.WithUsageTreeLogger(Logger)
}
