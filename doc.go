// # pydocmd
//
// `pydocmd` renders the API documentation of Python packages as Markdown. It
// reads Python source with tree-sitter instead of importing it, so no project
// code runs and no Python interpreter is needed.
//
// Key capabilities:
//
//   - document a package and all of its public submodules as a mirrored tree
//     of Markdown files (`pkg/index.md`, `pkg/sub.md`, ...).
//   - honor `__all__`, private names and the `from x import y as y`
//     re-export idiom when deciding what is public.
//   - parse Google, NumPy, reStructuredText and Epydoc docstrings, detecting
//     the style per docstring by default.
//   - link base classes, overridden and inherited members, and type names to
//     the document and anchor that declares them.
//   - keep going when single modules fail to parse; every problem becomes a
//     diagnostic that is logged and can be written as a YAML report.
//   - ship a Cobra-powered CLI with rich `--help`, `--version`, shell completion,
//     and a `gen-docs` helper for publishing the CLI reference itself.
//
// ## Usage
//
//	pydocmd [flags] MODULE...
//
// Examples:
//
//   - Document a package found in `src` into `docs/api`:
//
//     pydocmd -p src -o docs/api mypkg
//
//   - Print every document to stdout instead of writing files:
//
//     pydocmd -o - mypkg
//
//   - Regenerate existing docs with heading anchors for MkDocs:
//
//     pydocmd --overwrite --anchor-extend --exclude-module-name -o docs mypkg
//
// ## Supported Flags
//
//   - `-o, --output-dir DIR`: where documents are written (default `doc`,
//     `-` for stdout).
//   - `-p, --search-path DIR`: directories modules are looked up in, in order
//     (default `.`).
//   - `--docstring-style STYLE`: `auto`, `google`, `numpy`, `rest` or `epydoc`.
//   - `--anchor-extend`: append `{#anchor}` to every heading.
//   - `--exclude-module-name`: drop the root module's name from output paths.
//   - `--init-file-name NAME`: document name for packages (default
//     `index.md`).
//   - `--overwrite`: replace documents that already exist.
//   - `--ignore-data`: leave module and class attributes out.
//   - `--sort-members`: order members by name instead of source order.
//   - `--index`: write a table of contents of the requested modules at the
//     output root.
//   - `--jobs N`: number of files parsed in parallel.
//   - `--report FILE`: write diagnostics as YAML.
//   - `--log-level`, `--log-format`: logging verbosity and `text`/`json`
//     output on stderr.
//   - `--config FILE`: read settings from `FILE`.
//
// ## Configuration
//
// Every flag can also be set in `.pydocmd.yaml` (or `.yml`, `.toml`,
// `.json`) in the working directory, in the `[tool.pydocmd]` table of
// `pyproject.toml` (underscores allowed in keys), or through `PYDOCMD_*`
// environment variables such as `PYDOCMD_OUTPUT_DIR`. Flags win over the
// environment, which wins over the config file, which wins over
// `pyproject.toml`.
//
// ## Shell Completion
//
// Autocompletion is provided via Cobra's generators:
//
//	pydocmd completion bash        # bash
//	pydocmd completion zsh         # zsh
//	pydocmd completion fish | source
//	pydocmd completion powershell | Out-String | Invoke-Expression
//
// ## CLI Docs
//
// `pydocmd` can generate Markdown for each CLI command via `gen-docs`:
//
//	pydocmd gen-docs ./docs/cli
//
// Every command becomes its own Markdown file under the provided directory.
// As for API documents, existing files are kept unless `--overwrite` is given
// and `-` prints the pages to stdout.
package main
