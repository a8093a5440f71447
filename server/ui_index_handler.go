package server

import (
	"net/http"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// IndexHandler renders the browser page. All data is fetched by the inline
// script from the JSON API.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = indexPage(s.config.GetAppName()).Render(w)
	}
}

func indexPage(appName string) Node {
	return Doctype(
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("UTF-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				TitleEl(Text(appName)),
				StyleEl(Raw(indexCSS)),
			),
			Body(
				Header(
					H1(Text(appName)),
					Form(
						Method("post"),
						Action(RouteLogout),
						Button(Type("submit"), ID("logout"), Text("Log out")),
					),
				),
				Main(
					Section(
						ID("sidebar"),
						Label(For("database"), Text("Database")),
						Select(ID("database"), Option(Value(""), Text("Loading..."))),
						H2(Text("Tables")),
						Ul(ID("tables")),
					),
					Section(
						ID("content"),
						Form(
							ID("query"),
							Span(ID("table-name"), Text("Select a table")),
							Input(Type("text"), ID("where"), Name("where_clause"), Placeholder("WHERE id > 10 ORDER BY id LIMIT 100")),
							Button(Type("submit"), Text("Run")),
						),
						P(ID("status")),
						Div(Class("results"), Table(ID("records"))),
					),
				),
				Script(Raw(indexJS)),
			),
		),
	)
}

const indexCSS = `
	body { font-family: system-ui, sans-serif; margin: 0; color: #222; }
	header { display: flex; justify-content: space-between; align-items: center; padding: 0 20px; background: #2d3e50; color: #fff; }
	header h1 { font-size: 20px; }
	main { display: flex; min-height: calc(100vh - 64px); }
	#sidebar { width: 280px; padding: 16px; border-right: 1px solid #ddd; }
	#sidebar select { width: 100%; }
	#tables { list-style: none; padding: 0; }
	#tables li { padding: 6px 8px; cursor: pointer; border-radius: 4px; }
	#tables li:hover, #tables li.active { background: #e8eef5; }
	#tables .count { color: #888; float: right; }
	#content { flex: 1; padding: 16px; overflow: auto; }
	#query { display: flex; gap: 8px; align-items: center; }
	#where { flex: 1; font-family: monospace; }
	#status { color: #666; }
	#status.error { color: #b00020; }
	table { border-collapse: collapse; font-size: 13px; }
	th, td { border: 1px solid #ddd; padding: 4px 8px; text-align: left; white-space: nowrap; }
	th { background: #f4f4f4; position: sticky; top: 0; }
`

const indexJS = `
(function () {
	const dbSelect = document.getElementById("database");
	const tableList = document.getElementById("tables");
	const tableName = document.getElementById("table-name");
	const query = document.getElementById("query");
	const where = document.getElementById("where");
	const status = document.getElementById("status");
	const records = document.getElementById("records");
	let currentTable = "";

	function setStatus(text, isError) {
		status.textContent = text;
		status.className = isError ? "error" : "";
	}

	async function api(path, fields) {
		const init = { credentials: "same-origin", redirect: "manual" };
		if (fields) {
			init.method = "POST";
			init.body = new URLSearchParams(fields);
		}
		const resp = await fetch(path, init);
		if (resp.type === "opaqueredirect") {
			// the session is gone; a full navigation goes through the login flow
			window.location.reload();
			throw new Error("session expired");
		}
		const body = await resp.json();
		if (!resp.ok) {
			throw new Error(body.detail || resp.statusText);
		}
		return body;
	}

	async function loadDatabases() {
		const data = await api("` + RouteAPIDatabases + `");
		dbSelect.replaceChildren();
		if (data.databases.length === 0) {
			dbSelect.append(new Option("No databases found", ""));
			return;
		}
		for (const path of data.databases) {
			dbSelect.append(new Option(path, path));
		}
		await loadTables();
	}

	async function loadTables() {
		tableList.replaceChildren();
		records.replaceChildren();
		currentTable = "";
		tableName.textContent = "Select a table";
		if (!dbSelect.value) {
			return;
		}
		const data = await api("` + RouteAPITables + `", { db_path: dbSelect.value });
		for (const table of data.tables) {
			const li = document.createElement("li");
			li.textContent = table.name;
			const count = document.createElement("span");
			count.className = "count";
			count.textContent = table.row_count;
			li.append(count);
			li.addEventListener("click", () => {
				for (const other of tableList.children) {
					other.classList.remove("active");
				}
				li.classList.add("active");
				currentTable = table.name;
				tableName.textContent = table.name;
				loadRecords().catch((e) => setStatus(e.message, true));
			});
			tableList.append(li);
		}
	}

	async function loadRecords() {
		if (!currentTable) {
			return;
		}
		setStatus("Loading...", false);
		const data = await api("` + RouteAPIRecords + `", {
			db_path: dbSelect.value,
			table_name: currentTable,
			where_clause: where.value,
		});
		const head = document.createElement("tr");
		for (const column of data.columns) {
			const th = document.createElement("th");
			th.textContent = column;
			head.append(th);
		}
		const rows = data.records.map((record) => {
			const tr = document.createElement("tr");
			for (const value of record) {
				const td = document.createElement("td");
				td.textContent = value === null ? "NULL" : String(value);
				tr.append(td);
			}
			return tr;
		});
		records.replaceChildren(head, ...rows);
		setStatus(data.count + " rows", false);
	}

	dbSelect.addEventListener("change", () => loadTables().catch((e) => setStatus(e.message, true)));
	query.addEventListener("submit", (e) => {
		e.preventDefault();
		loadRecords().catch((err) => setStatus(err.message, true));
	});
	loadDatabases().catch((e) => setStatus(e.message, true));
})();
`
