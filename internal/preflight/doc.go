// Package preflight provides readiness checks for the external tools and
// filesystem paths dandiprep depends on.
//
// These checks run in two contexts:
//   - The pipeline calls RunAll before clearing scratch when --preflight is
//     set. If any check fails the run stops before anything is deleted.
//   - The CLI "dandiprep deps" command renders the same results as a table.
package preflight
