package genesis

import (
	"fmt"
	"io"
)

// Source names the kind of feed a Config opens.
type Source string

const (
	// SourceStatic gives every account the same amount and age.
	SourceStatic Source = "static"
	// SourceFile reads amounts and ages from text files.
	SourceFile Source = "file"
	// SourceGaussian draws normal amounts and ages from its own seed.
	SourceGaussian Source = "gaussian"
)

// Config selects and parameterises the account initialization feed.
type Config struct {
	Source Source `yaml:"source"`

	// static
	Amount int64  `yaml:"amount"`
	Age    uint64 `yaml:"age"`

	// file
	AmountFile string `yaml:"amountFile"`
	AgeFile    string `yaml:"ageFile"`

	// gaussian
	Seed       int64   `yaml:"seed"`
	AmountMean float64 `yaml:"amountMean"`
	AmountSD   float64 `yaml:"amountStdDev"`
	AgeMean    float64 `yaml:"ageMean"`
	AgeSD      float64 `yaml:"ageStdDev"`
}

// DefaultConfig draws amounts around 1000 with every account starting at
// age 1.
func DefaultConfig() Config {
	return Config{
		Source:     SourceGaussian,
		Amount:     1000,
		Age:        1,
		Seed:       10,
		AmountMean: 1000,
		AmountSD:   300,
		AgeMean:    1,
		AgeSD:      0,
	}
}

// Open builds the feed. The returned closer must be called once the feed is
// no longer needed; it is a no-op for feeds that hold no files.
func (c Config) Open(n int) (Feed, io.Closer, error) {
	switch c.Source {
	case SourceStatic:
		return NewSliceFeed(Uniform(n, c.Amount, c.Age)...), nopCloser{}, nil
	case SourceFile:
		f, err := OpenFileFeed(c.AmountFile, c.AgeFile)
		if err != nil {
			return nil, nil, err
		}
		return f, f, nil
	case SourceGaussian:
		return NewGaussianFeed(c.Seed, c.AmountMean, c.AmountSD, c.AgeMean, c.AgeSD), nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("unknown genesis source %q", c.Source)
}

// Load opens the feed and takes one allocation per account.
func (c Config) Load(accounts int) ([]Allocation, error) {
	feed, closer, err := c.Open(accounts)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return Take(feed, accounts)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
