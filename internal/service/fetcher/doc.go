// Package fetcher downloads release payloads to temporary files, bounding
// peak memory by streaming and failing closed on short transfers.
package fetcher
