package gapfill

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mudesheng/gafill/align"
	"github.com/mudesheng/gafill/search"
)

// GapConfig bounds every search the gap closing code runs.
type GapConfig struct {
	RunDijkstra            bool
	MaxContigsGapLength    int
	MaxVertexInGap         int
	EdLowerBound           int
	EdUpperBound           int
	MaxEdProportion        int
	MaxRestorableEndLength int
	IterationLimit         int
	MaxEnumCalls           int
	MaxEnumPaths           int
	PathLimitStretching    float64
	PathLimitPressing      float64
}

func DefaultGapConfig() GapConfig {
	return GapConfig{
		RunDijkstra:            true,
		MaxContigsGapLength:    10000,
		MaxVertexInGap:         10000,
		EdLowerBound:           500,
		EdUpperBound:           2000,
		MaxEdProportion:        5,
		MaxRestorableEndLength: 3000,
		IterationLimit:         align.DefaultIterationLimit,
		MaxEnumCalls:           search.DefaultMaxCalls,
		MaxEnumPaths:           search.DefaultMaxPaths,
		PathLimitStretching:    1.3,
		PathLimitPressing:      0.7,
	}
}

func (cfg GapConfig) Validate() error {
	if cfg.MaxEdProportion < 1 {
		return fmt.Errorf("max_ed_proportion: %d must be positive", cfg.MaxEdProportion)
	}
	if cfg.EdLowerBound < 0 || cfg.EdUpperBound < cfg.EdLowerBound {
		return fmt.Errorf("ed bounds: [%d, %d] not a valid range", cfg.EdLowerBound, cfg.EdUpperBound)
	}
	if cfg.PathLimitPressing <= 0 || cfg.PathLimitStretching < cfg.PathLimitPressing {
		return fmt.Errorf("path limits: pressing %v stretching %v not a valid range", cfg.PathLimitPressing, cfg.PathLimitStretching)
	}
	return nil
}

// LibInfo describes one paired read library of the cfg file.
type LibInfo struct {
	Name       string
	InsertSize int
	InsertSD   int
	FnName     []string
}

type CfgInfo struct {
	Gap  GapConfig
	Libs []LibInfo
}

// ParseCfg reads a "key = value" cfg file with [gap_closing] and [LIB] sections.
// Keys missing from the file keep their defaults.
func ParseCfg(fn string) (cfgInfo CfgInfo, err error) {
	fp, err := os.Open(fn)
	if err != nil {
		return cfgInfo, err
	}
	defer fp.Close()
	return ReadCfg(fp)
}

func ReadCfg(r io.Reader) (cfgInfo CfgInfo, err error) {
	cfgInfo.Gap = DefaultGapConfig()
	var libInfo LibInfo
	inLib := false
	reader := bufio.NewReader(r)
	lineNum := 0
	for eof := false; !eof; {
		var line string
		line, err = reader.ReadString('\n')
		if err == io.EOF {
			err = nil
			eof = true
		} else if err != nil {
			return cfgInfo, err
		}
		lineNum++
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if strings.HasPrefix(fields[0], "[") {
			if inLib && libInfo.Name != "" {
				cfgInfo.Libs = append(cfgInfo.Libs, libInfo)
			}
			libInfo = LibInfo{}
			inLib = fields[0] == "[LIB]"
			continue
		}
		if len(fields) < 3 || fields[1] != "=" {
			return cfgInfo, fmt.Errorf("line %d: expect 'key = value', got %q", lineNum, strings.TrimSpace(line))
		}
		key, val := fields[0], fields[2]
		if inLib {
			err = setLibField(&libInfo, key, val)
		} else {
			err = setGapField(&cfgInfo.Gap, key, val)
		}
		if err != nil {
			return cfgInfo, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if inLib && libInfo.Name != "" {
		cfgInfo.Libs = append(cfgInfo.Libs, libInfo)
	}
	return cfgInfo, cfgInfo.Gap.Validate()
}

func setLibField(lib *LibInfo, key, val string) (err error) {
	switch key {
	case "name":
		lib.Name = val
	case "avg_insert_len":
		lib.InsertSize, err = strconv.Atoi(val)
	case "insert_SD":
		lib.InsertSD, err = strconv.Atoi(val)
	case "f1", "f2", "pairbam":
		lib.FnName = append(lib.FnName, val)
	default:
		return fmt.Errorf("unknown LIB key %q", key)
	}
	return err
}

func setGapField(cfg *GapConfig, key, val string) (err error) {
	switch key {
	case "run_dijkstra":
		cfg.RunDijkstra, err = strconv.ParseBool(val)
	case "max_contigs_gap_length":
		cfg.MaxContigsGapLength, err = strconv.Atoi(val)
	case "max_vertex_in_gap":
		cfg.MaxVertexInGap, err = strconv.Atoi(val)
	case "ed_lower_bound":
		cfg.EdLowerBound, err = strconv.Atoi(val)
	case "ed_upper_bound":
		cfg.EdUpperBound, err = strconv.Atoi(val)
	case "max_ed_proportion":
		cfg.MaxEdProportion, err = strconv.Atoi(val)
	case "max_restorable_end_length":
		cfg.MaxRestorableEndLength, err = strconv.Atoi(val)
	case "iteration_limit":
		cfg.IterationLimit, err = strconv.Atoi(val)
	case "max_enum_calls":
		cfg.MaxEnumCalls, err = strconv.Atoi(val)
	case "max_enum_paths":
		cfg.MaxEnumPaths, err = strconv.Atoi(val)
	case "path_limit_stretching":
		cfg.PathLimitStretching, err = strconv.ParseFloat(val, 64)
	case "path_limit_pressing":
		cfg.PathLimitPressing, err = strconv.ParseFloat(val, 64)
	case "max_rd_len", "min_rd_len":
		// global read settings shared with the other stages
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return err
}
