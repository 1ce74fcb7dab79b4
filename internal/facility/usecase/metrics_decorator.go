package usecase

import (
	"context"
	"io"
	"time"

	"github.com/allisson/kmi/internal/metrics"
)

// metricsDomain labels every facility operation.
const metricsDomain = "facility"

// facilityWithMetrics decorates Facility with metrics instrumentation.
type facilityWithMetrics struct {
	next    Facility
	metrics metrics.BusinessMetrics
}

// NewFacilityWithMetrics wraps a Facility with metrics recording.
func NewFacilityWithMetrics(facility Facility, m metrics.BusinessMetrics) Facility {
	return &facilityWithMetrics{
		next:    facility,
		metrics: m,
	}
}

func (f *facilityWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	f.metrics.RecordOperation(ctx, metricsDomain, operation, time.Since(start), err)
}

// Generate records metrics for KEK generation.
func (f *facilityWithMetrics) Generate(ctx context.Context) ([]byte, error) {
	start := time.Now()
	kek, err := f.next.Generate(ctx)
	f.record(ctx, "generate", start, err)
	return kek, err
}

// GetEncryptionKey records metrics for DEK resolution.
func (f *facilityWithMetrics) GetEncryptionKey(ctx context.Context, kek []byte) ([]byte, error) {
	start := time.Now()
	dek, err := f.next.GetEncryptionKey(ctx, kek)
	f.record(ctx, "get_encryption_key", start, err)
	return dek, err
}

// Encrypt records metrics for payload encryption.
func (f *facilityWithMetrics) Encrypt(ctx context.Context, kek, data []byte) ([]byte, error) {
	start := time.Now()
	out, err := f.next.Encrypt(ctx, kek, data)
	f.record(ctx, "encrypt", start, err)
	return out, err
}

// Decrypt records metrics for payload decryption.
func (f *facilityWithMetrics) Decrypt(ctx context.Context, kek, data []byte) ([]byte, error) {
	start := time.Now()
	out, err := f.next.Decrypt(ctx, kek, data)
	f.record(ctx, "decrypt", start, err)
	return out, err
}

// EncryptStream records metrics for streaming encryption.
func (f *facilityWithMetrics) EncryptStream(ctx context.Context, kek []byte, src io.Reader, dst io.Writer) error {
	start := time.Now()
	err := f.next.EncryptStream(ctx, kek, src, dst)
	f.record(ctx, "encrypt_stream", start, err)
	return err
}

// DecryptStream records metrics for streaming decryption.
func (f *facilityWithMetrics) DecryptStream(ctx context.Context, kek []byte, src io.Reader, dst io.Writer) error {
	start := time.Now()
	err := f.next.DecryptStream(ctx, kek, src, dst)
	f.record(ctx, "decrypt_stream", start, err)
	return err
}

// InvalidateCache is not instrumented.
func (f *facilityWithMetrics) InvalidateCache(kek []byte) {
	f.next.InvalidateCache(kek)
}

// Health is not instrumented; readiness probes would drown the real traffic.
func (f *facilityWithMetrics) Health(ctx context.Context) error {
	return f.next.Health(ctx)
}

// masterFacilityWithMetrics adds the administrative operations to facilityWithMetrics.
type masterFacilityWithMetrics struct {
	facilityWithMetrics
	master MasterFacility
}

// NewMasterFacilityWithMetrics wraps a MasterFacility with metrics recording.
func NewMasterFacilityWithMetrics(master MasterFacility, m metrics.BusinessMetrics) MasterFacility {
	return &masterFacilityWithMetrics{
		facilityWithMetrics: facilityWithMetrics{next: master, metrics: m},
		master:              master,
	}
}

// Keys records metrics for listing wrapped keys.
func (f *masterFacilityWithMetrics) Keys(ctx context.Context) ([]string, error) {
	start := time.Now()
	keys, err := f.master.Keys(ctx)
	f.record(ctx, "keys", start, err)
	return keys, err
}

// Contains records metrics for wrapped key lookups.
func (f *masterFacilityWithMetrics) Contains(ctx context.Context, lookupKey string) (bool, error) {
	start := time.Now()
	ok, err := f.master.Contains(ctx, lookupKey)
	f.record(ctx, "contains", start, err)
	return ok, err
}

// Delete records metrics for wrapped key deletion.
func (f *masterFacilityWithMetrics) Delete(ctx context.Context, lookupKey string) error {
	start := time.Now()
	err := f.master.Delete(ctx, lookupKey)
	f.record(ctx, "delete", start, err)
	return err
}
