/*
Package results persists run records to disk and loads them back.

A run record is a directory named by the run id:

	<output_path>/<run_id>/
	    bng_config.json   simulator connection config
	    params.json       run inputs
	    config.json       run settings, without the connection config or part catalog
	    results.json      summary values
	    history.json      per-step sequences
	    *.csv             raw simulator logs, when logging was enabled
	    outcome.json      completion marker, always written last

A directory without outcome.json is an incomplete record and never loads.
*/
package results
