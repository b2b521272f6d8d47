package utils

import (
	"log"
	"unsafe"

	"github.com/jwaldrip/odin/cli"
)

type ArgsOpt struct {
	Prefix string
	Kmer   int
	NumCPU int
	CfgFn  string
	Debug  bool
}

// return global arguments and check if successed
func CheckGlobalArgs(c cli.Command) (opt ArgsOpt, succ bool) {
	opt.Prefix = c.Flag("p").String()
	if opt.Prefix == "" {
		log.Fatalf("[CheckGlobalArgs] args 'p' not set\n")
	}
	opt.CfgFn = c.Flag("C").String()

	var ok bool
	opt.Kmer, ok = c.Flag("K").Get().(int)
	if !ok {
		log.Fatalf("[CheckGlobalArgs] args 'K' : %v set error\n", c.Flag("K").String())
	}
	if opt.Kmer < 3 {
		log.Fatalf("[CheckGlobalArgs] the argument 'K':%d must bigger than 2\n", opt.Kmer)
	}
	opt.NumCPU, ok = c.Flag("t").Get().(int)
	if !ok {
		log.Fatalf("[CheckGlobalArgs] args 't': %v set error\n", c.Flag("t").String())
	}
	if opt.NumCPU < 1 {
		opt.NumCPU = 1
	}
	opt.Debug, ok = c.Flag("Debug").Get().(bool)
	if !ok {
		log.Fatalf("[CheckGlobalArgs] args 'Debug': %v set error\n", c.Flag("Debug").String())
	}
	return opt, true
}

func AbsInt(a int) int {
	if a < 0 {
		return -a
	} else {
		return a
	}
}

func MaxInt(a, b int) int {
	if a > b {
		return a
	} else {
		return b
	}
}

func MinInt(a, b int) int {
	if a > b {
		return b
	} else {
		return a
	}
}

// ClampInt returns v limited to [low, high].
func ClampInt(v, low, high int) int {
	return MinInt(MaxInt(v, low), high)
}

// Bytes2String views b as a string without copying; b must not change afterwards.
func Bytes2String(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

func BytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return Bytes2String(a) == Bytes2String(b)
}
