// Package combine reduces an ensemble's score matrix to a single consensus
// value per sample.
//
// Every function in this package is a pure row reduction over a
// domain.ScoreMatrix: the matrix is never modified and no state survives a
// call. The only input that can make two calls with identical arguments
// disagree is an unseeded random source, which the bucket methods fall back
// to when BucketOptions.Rand is nil.
//
// Strategies:
//
//   - Average, Maximization, Median: direct row statistics.
//   - AOM (average of maximum) and MOA (maximum of average): estimators are
//     grouped into buckets, each bucket is reduced per sample, and the bucket
//     results are reduced again. Both share one sampler and one reducer.
//   - MajorityVote: weighted mode over discrete labels.
//
// All reductions are row independent. WithWorkers fans rows out over a
// bounded errgroup; the result is identical to the sequential path.
package combine
