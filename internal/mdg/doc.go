/*
Mdg generates simulated market data for the instrument catalog.

# Module
  - generator: bounded random walk per instrument with mean reversion and a daily trend term
  - normalizer: rounds raw prices and enforces the price floor
  - simulator: owns the tick loop with explicit start/stop and a minimum interval guard

# Produce
  - price replacements into the catalog
  - batched instrument rows into the price sink, when one is configured

The simulator never touches account state.
*/
package mdg
