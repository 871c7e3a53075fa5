// Package board models the electrode board a DropBot drives: the set of
// addressable electrode channels and the undirected connectivity graph
// between physically adjacent electrodes.
//
// Routes for liquid movement are derived from the graph by shortest-path
// search. The controller core consumes the graph only through the
// move.PathFinder capability, so alternative layouts (test grids, imported
// board definitions) plug in without touching the sequencing logic.
//
// Board definitions are persisted in SQLite through Repository; disabled
// electrodes are kept in the definition but excluded from the loaded graph
// so route planning never schedules them.
package board
