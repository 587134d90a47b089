/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package plots

import (
	"math"
	"math/bits"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jjos2372/signum-jminer/configs"
	"github.com/jjos2372/signum-jminer/pkg/utils"
	"github.com/pkg/errors"
)

var ErrNotPlotFile = errors.New("not a plot file")

// PlotFile is a PoC2 plot file named <accountID>_<startNonce>_<nonces>
type PlotFile struct {
	Path       string
	AccountID  uint64
	StartNonce uint64
	Nonces     uint64
	Size       int64
}

// EndNonce is the first nonce after the file
func (p PlotFile) EndNonce() uint64 {
	return p.StartNonce + p.Nonces
}

// ExpectedSize is the size the file must have for its nonce count
func (p PlotFile) ExpectedSize() (int64, bool) {
	hi, lo := bits.Mul64(p.Nonces, configs.NonceSize)
	if hi != 0 || lo > math.MaxInt64 {
		return 0, false
	}
	return int64(lo), true
}

// ParseName parses the name of a plot file
func ParseName(name string) (PlotFile, error) {
	var p PlotFile
	parts := strings.Split(name, "_")
	if len(parts) != 3 {
		return p, ErrNotPlotFile
	}
	var values [3]uint64
	for i, v := range parts {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return p, ErrNotPlotFile
		}
		values[i] = n
	}
	p.AccountID, p.StartNonce, p.Nonces = values[0], values[1], values[2]
	if p.Nonces == 0 {
		return p, errors.Errorf("plot file '%s' holds no nonces", name)
	}
	if p.StartNonce > math.MaxUint64-p.Nonces {
		return p, errors.Errorf("nonce range of '%s' overflows", name)
	}
	return p, nil
}

type Problem struct {
	Path   string
	Reason string
}

// Overlap is a nonce range plotted twice for one account
type Overlap struct {
	AccountID uint64
	First     string
	Second    string
	From      uint64
	To        uint64
}

type Drive struct {
	Directory string
	Files     int
	Bytes     int64
	Total     uint64
	Free      uint64
}

type Report struct {
	Plots    []PlotFile
	Drives   []Drive
	Problems []Problem
	Overlaps []Overlap
}

// OK reports whether every plot file passed the check
func (r *Report) OK() bool {
	return len(r.Problems) == 0 && len(r.Overlaps) == 0
}

// CheckPlotFiles inspects the plot files directly under every directory
// of paths. Problems with single files or directories end up in the
// report; an error is only returned when there is nothing to check.
func CheckPlotFiles(paths []string) (*Report, error) {
	if len(paths) == 0 {
		return nil, errors.New("no plot directories given")
	}
	var report = &Report{
		Plots:    make([]PlotFile, 0),
		Drives:   make([]Drive, 0, len(paths)),
		Problems: make([]Problem, 0),
		Overlaps: make([]Overlap, 0),
	}
	for _, dir := range paths {
		fstat, err := os.Stat(dir)
		if err != nil {
			report.Problems = append(report.Problems, Problem{Path: dir, Reason: err.Error()})
			continue
		}
		if !fstat.IsDir() {
			report.Problems = append(report.Problems, Problem{Path: dir, Reason: "not a directory"})
			continue
		}
		drive := Drive{Directory: dir}
		if mp, err := utils.GetDirUsage(dir); err == nil {
			drive.Total, drive.Free = mp.Total, mp.Free
		}
		files, err := utils.DirFiles(dir, 0)
		if err != nil {
			report.Problems = append(report.Problems, Problem{Path: dir, Reason: errors.Wrap(err, "[DirFiles]").Error()})
			continue
		}
		for _, fpath := range files {
			p, err := checkFile(fpath)
			if err != nil {
				report.Problems = append(report.Problems, Problem{Path: fpath, Reason: err.Error()})
				continue
			}
			drive.Files++
			drive.Bytes += p.Size
			report.Plots = append(report.Plots, p)
		}
		report.Drives = append(report.Drives, drive)
	}
	report.Overlaps = findOverlaps(report.Plots)
	return report, nil
}

func checkFile(fpath string) (PlotFile, error) {
	p, err := ParseName(filepath.Base(fpath))
	if err != nil {
		return p, err
	}
	p.Path = fpath
	fstat, err := os.Stat(fpath)
	if err != nil {
		return p, errors.Wrap(err, "[Stat]")
	}
	p.Size = fstat.Size()
	expected, ok := p.ExpectedSize()
	if !ok {
		return p, errors.Errorf("nonce count '%d' is too large", p.Nonces)
	}
	if p.Size != expected {
		return p, errors.Errorf("size '%d' does not match '%d' nonces, expected '%d'", p.Size, p.Nonces, expected)
	}
	return p, nil
}

func findOverlaps(list []PlotFile) []Overlap {
	var result = make([]Overlap, 0)
	sorted := append([]PlotFile(nil), list...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].AccountID != sorted[j].AccountID {
			return sorted[i].AccountID < sorted[j].AccountID
		}
		return sorted[i].StartNonce < sorted[j].StartNonce
	})
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			if a.AccountID != b.AccountID || b.StartNonce >= a.EndNonce() {
				break
			}
			to := a.EndNonce()
			if b.EndNonce() < to {
				to = b.EndNonce()
			}
			result = append(result, Overlap{
				AccountID: a.AccountID,
				First:     a.Path,
				Second:    b.Path,
				From:      b.StartNonce,
				To:        to,
			})
		}
	}
	return result
}
