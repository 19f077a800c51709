// Command cellinspect builds a cell (or a small two-level demo tree)
// from command-line input and prints its type, representation hash, bit
// and reference counts, depth and tree statistics.
//
// Usage:
//
//	cellinspect -hex 48656c6c6f -bits 40
//	cellinspect -demo
//
// Flags:
//
//	-hex         hex-encoded payload bytes for a single leaf cell
//	-bits        number of meaningful bits in -hex (default: 8*len(hex bytes))
//	-exotic      interpret the payload's first byte as an exotic type tag
//	-demo        ignore -hex/-bits and build a small two-level demo tree
//	-verbosity   log level: debug, info, warn, error (default: info)
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/CynthiaCurtis/broxus-types/cell"
	"github.com/CynthiaCurtis/broxus-types/cellcache"
	"github.com/CynthiaCurtis/broxus-types/cellog"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := newCustomFlagSet("cellinspect")
	hexPayload := fs.String("hex", "", "hex-encoded payload bytes")
	bits := fs.Int("bits", -1, "meaningful bit count (default: full payload)")
	exotic := fs.Bool("exotic", false, "interpret the payload as an exotic cell")
	demo := fs.Bool("demo", false, "build a small two-level demo tree instead")
	verbosity := fs.String("verbosity", "info", "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	if err := cellog.SetLevel(*verbosity); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -verbosity: %v\n", err)
		return 2
	}

	cache := cellcache.New(4*1024*1024, cellog.FinalizerOption())

	var (
		c   cell.Cell
		err error
	)
	switch {
	case *demo:
		c, err = buildDemoTree(cache)
	default:
		c, err = buildLeaf(cache, *hexPayload, *bits, *exotic)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	printCell(c)
	return 0
}

func buildLeaf(f cell.Finalizer, hexPayload string, bits int, exotic bool) (cell.Cell, error) {
	raw, err := hex.DecodeString(hexPayload)
	if err != nil {
		return cell.Cell{}, fmt.Errorf("decoding -hex: %w", err)
	}
	if bits < 0 {
		bits = len(raw) * 8
	}
	if bits > len(raw)*8 {
		return cell.Cell{}, fmt.Errorf("-bits %d exceeds the %d bits in -hex", bits, len(raw)*8)
	}

	b := cell.GetBuilder()
	defer cell.PutBuilder(b)
	full, rem := bits/8, bits%8
	if err := b.StoreBytes(raw[:full]); err != nil {
		return cell.Cell{}, err
	}
	if rem != 0 {
		if err := b.StoreUint(uint64(raw[full]>>(8-rem)), rem); err != nil {
			return cell.Cell{}, err
		}
	}
	b.SetExotic(exotic)
	return b.BuildWith(f)
}

// buildDemoTree builds two leaf cells and a parent referencing both, to
// demonstrate multi-level hashing and tree statistics.
func buildDemoTree(f cell.Finalizer) (cell.Cell, error) {
	left := cell.GetBuilder()
	defer cell.PutBuilder(left)
	if err := left.StoreUint(1, 8); err != nil {
		return cell.Cell{}, err
	}
	leftCell, err := left.BuildWith(f)
	if err != nil {
		return cell.Cell{}, err
	}
	cellog.WithCell(leftCell).Debug("built left leaf")

	right := cell.GetBuilder()
	defer cell.PutBuilder(right)
	if err := right.StoreUint(2, 8); err != nil {
		return cell.Cell{}, err
	}
	rightCell, err := right.BuildWith(f)
	if err != nil {
		return cell.Cell{}, err
	}
	cellog.WithCell(rightCell).Debug("built right leaf")

	parent := cell.GetBuilder()
	defer cell.PutBuilder(parent)
	if err := parent.StoreUint(0, 8); err != nil {
		return cell.Cell{}, err
	}
	if err := parent.StoreReference(leftCell); err != nil {
		return cell.Cell{}, err
	}
	if err := parent.StoreReference(rightCell); err != nil {
		return cell.Cell{}, err
	}
	return parent.BuildWith(f)
}

func printCell(c cell.Cell) {
	cellog.WithCell(c).Info("finalized cell")
	stats := c.TreeStats()
	fmt.Printf("type:       %s\n", c.Type())
	fmt.Printf("hash:       %s\n", c.RepresentationHash())
	fmt.Printf("bits:       %d\n", c.BitLen())
	fmt.Printf("refs:       %d\n", c.RefCount())
	fmt.Printf("depth:      %d\n", c.Depth(0))
	fmt.Printf("tree cells: %d\n", stats.CellCount)
	fmt.Printf("tree bits:  %d\n", stats.BitCount)
}
