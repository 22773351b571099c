package vcf

// VariantParser yields the records of one VCF. The caller extractor reads
// through it so tests can feed records without a file.
type VariantParser interface {
	// Next returns nil, nil at end of input.
	Next() (*Variant, error)
	Close() error
	Records() int
}
