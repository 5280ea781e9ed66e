package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReporter captures reported records for assertions.
type fakeReporter struct {
	records []Record
}

func (f *fakeReporter) Report(r Record) {
	f.records = append(f.records, r)
}

func TestCounterReportsToReporters(t *testing.T) {
	f := &fakeReporter{}
	SetMetricsReporters([]Reporter{f})
	defer SetMetricsReporters(nil)

	IncrCounterWithGroup(NameLogEvictionTotal, GroupDrvlogd, 1)
	IncrCounterWithGroup(NameLogEvictionTotal, GroupDrvlogd, 2)

	require.Len(t, f.records, 2)
	r := f.records[1]
	assert.Equal(t, NameLogEvictionTotal, r.Metrics().Name())
	assert.Equal(t, GroupDrvlogd, r.Metrics().Group())
	assert.Equal(t, Policy_Sum, r.Metrics().Policy())
	assert.Equal(t, Value(2), r.Value())
}

func TestCounterDimensions(t *testing.T) {
	f := &fakeReporter{}
	SetMetricsReporters([]Reporter{f})
	defer SetMetricsReporters(nil)

	IncrCounterWithDimGroup(NameCommandDropTotal, GroupDrvlogd, 1,
		Dimension{DimReason: ReasonUnknownOpcode})

	require.Len(t, f.records, 1)
	assert.Equal(t, ReasonUnknownOpcode, f.records[0].Dimensions()[DimReason])
}

func TestGaugeUsesSetPolicy(t *testing.T) {
	f := &fakeReporter{}
	SetMetricsReporters([]Reporter{f})
	defer SetMetricsReporters(nil)

	UpdateGaugeWithGroup(NameLogBufferUsedBytes, GroupDrvlogd, 4096)
	UpdateGaugeWithGroup(NameLogBufferUsedBytes, GroupDrvlogd, 128)

	require.Len(t, f.records, 2)
	assert.Equal(t, Policy_Set, f.records[0].Metrics().Policy())
	assert.Equal(t, Value(128), f.records[1].Value())
}

func TestNoReportersIsSafe(t *testing.T) {
	SetMetricsReporters(nil)
	IncrCounterWithGroup(NameDumpTotal, GroupDrvlogd, 1)
}

func TestRecordClone(t *testing.T) {
	f := &fakeReporter{}
	SetMetricsReporters([]Reporter{f})
	defer SetMetricsReporters(nil)

	IncrCounterWithDimGroup(NameDatagramRecvTotal, GroupDrvlogd, 5,
		Dimension{DimTransport: "unixgram"})
	require.Len(t, f.records, 1)

	cp := f.records[0].Clone()
	cp.Dimensions()[DimTransport] = "udpgram"
	assert.Equal(t, "unixgram", f.records[0].Dimensions()[DimTransport])
	assert.Equal(t, f.records[0].Value(), cp.Value())
}
