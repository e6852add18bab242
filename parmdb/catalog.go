// SPDX-License-Identifier: MIT

package parmdb

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/calkernel/funklet"
)

// Catalog is a YAML document of parameter records:
//
//	defaults:
//	  - name: Gain
//	    type: polynomial
//	    shape: [1, 1]
//	    coeff: [1.0]
//	parms:
//	  - name: RA:CasA
//	    type: polynomial
//	    shape: [1, 1]
//	    coeff: [6.1234]
//	    domain: {start_freq: 1e8, end_freq: 2e8, start_time: 0, end_time: 3600}
type Catalog struct {
	Defaults []funklet.Record `yaml:"defaults"`
	Parms    []funklet.Record `yaml:"parms"`
}

// LoadCatalog decodes and validates a catalog. Every record must build a
// funklet; defaults are checked with a placeholder domain.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadCatalogFile reads a catalog from path.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCatalog(f)
}

// Validate checks every record.
func (c *Catalog) Validate() error {
	for i, rec := range c.Parms {
		if err := checkRecord(rec); err != nil {
			return fmt.Errorf("parms[%d]: %w", i, err)
		}
	}
	for i, rec := range c.Defaults {
		// Defaults take their domain from the request at load time.
		rec.Domain.EndFreq = rec.Domain.StartFreq + 1
		rec.Domain.EndTime = rec.Domain.StartTime + 1
		if rec.RefFreq == 0 {
			rec.RefFreq = 1
		}
		if rec.RefTime == 0 {
			rec.RefTime = 1
		}
		if err := checkRecord(rec); err != nil {
			return fmt.Errorf("defaults[%d]: %w", i, err)
		}
	}
	return nil
}

func checkRecord(rec funklet.Record) error {
	if err := checkName(rec.Name); err != nil {
		return err
	}
	_, err := funklet.FromRecord(rec)
	return err
}

// Import writes every record of c into w.
func (c *Catalog) Import(ctx context.Context, w Writer) error {
	for _, rec := range c.Defaults {
		if err := w.PutDefault(ctx, rec); err != nil {
			return fmt.Errorf("import default %s: %w", rec.Name, err)
		}
	}
	for _, rec := range c.Parms {
		if err := w.Put(ctx, rec); err != nil {
			return fmt.Errorf("import %s: %w", rec.Name, err)
		}
	}
	return nil
}
