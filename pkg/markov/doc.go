/*
Package markov provides k-th order Markov models over DNA for training on
reference sequences and sampling synthetic sequences from them.

A Model counts, for each of the 4^k contexts, which symbol followed it in the
training data. Counting happens while the model is Unfit; Fit freezes the
counts and eagerly derives the transition probabilities, the sparse context
transition matrix and its stationary distribution. Call Reset to start a new
fit.

A Generator takes a snapshot of a fitted model. It draws the first context
from the stationary distribution, so generated sequences match the training
k-mer statistics from the first symbol, and then samples one symbol at a time.
Generators support reproducible seeds, temperature, burn-in and a streaming
API for very long sequences.

Models are persisted as YAML dumps holding the alphabet, k and the raw count
matrix; see Model.Save and Model.Load.
*/
package markov
