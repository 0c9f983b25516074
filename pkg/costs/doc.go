// Package costs implements the cost engine: pricing of token usage against
// the model catalog, cache-savings accounting, and cheapest-model selection.
//
// All prices are USD per 1000 tokens, scaled by a per-region multiplier from
// the catalog. Amounts are rounded to 6 decimal places, which is below the
// granularity of any real price in the catalog.
package costs
