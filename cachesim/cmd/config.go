package cmd

import (
	"fmt"
	"strconv"
)

// config is the hierarchy described by the positional arguments.
type config struct {
	l1Size      int
	l1Assoc     int
	l1BlockSize int
	vcNumBlocks int
	l2Size      int
	l2Assoc     int
	tracePath   string
}

func parseConfig(args []string) (config, error) {
	names := []string{
		"L1_SIZE", "L1_ASSOC", "L1_BLOCKSIZE",
		"VC_NUM_BLOCKS", "L2_SIZE", "L2_ASSOC",
	}

	values := make([]int, len(names))
	for i, name := range names {
		v, err := strconv.Atoi(args[i])
		if err != nil {
			return config{}, fmt.Errorf("%s must be an integer, got %q",
				name, args[i])
		}

		values[i] = v
	}

	cfg := config{
		l1Size:      values[0],
		l1Assoc:     values[1],
		l1BlockSize: values[2],
		vcNumBlocks: values[3],
		l2Size:      values[4],
		l2Assoc:     values[5],
		tracePath:   args[6],
	}

	return cfg, nil
}

func (c config) hasVictimCache() bool {
	return c.vcNumBlocks != 0
}

func (c config) hasL2() bool {
	return c.l2Size != 0
}
