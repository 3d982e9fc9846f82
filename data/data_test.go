// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package data_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/born-ml/fitloop/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPipeline goes from CSV content to batches through the public API.
func TestPipeline(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("x1,x2,kind\n")
	for i := range 20 {
		kind := "small"
		if i%2 == 1 {
			kind = "large"
		}
		fmt.Fprintf(&sb, "%d,%d,%s\n", i, 2*i, kind)
	}
	ds, err := data.ReadCSV(strings.NewReader(sb.String()), "kind")
	require.NoError(t, err)
	assert.Equal(t, []string{"large", "small"}, ds.Classes)

	train, valid := data.SplitValid(ds, 0.25, 1)
	bunch := data.NewDataBunch(train, valid, data.Config{BatchSize: 4, NoShuffle: true})
	assert.Equal(t, 4, bunch.Len())

	total := 0
	for batch := range bunch.Train.All() {
		total += batch.Len()
	}
	assert.Equal(t, 15, total)
}
