/*
Package store keeps trained Markov models in a SQLite database so counts can
be accumulated across many runs and reused later.

Only the raw transition counts are stored, one row per non-zero
context->symbol cell. A stored model is read back as an unfit markov.Model
that must be fitted before sampling. The caller chooses the SQLite driver;
both modernc.org/sqlite and github.com/mattn/go-sqlite3 are supported.
*/
package store
