// Package site renders the published views: two JSON artifacts plus a
// static HTML table, written into a docs directory served as static files.
package site

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/lommaks/researchdigest/internal/scoring"
	"github.com/lommaks/researchdigest/internal/store"
)

// Row is the JSON shape served to the table page. Keys are lowercase for
// the front-end regardless of how the CSV columns are cased.
type Row struct {
	Date      string  `json:"date"`
	Section   string  `json:"section"`
	Source    string  `json:"source"`
	Category  string  `json:"category"`
	Idea      string  `json:"idea"`
	Ease      float64 `json:"ease"`
	Potential float64 `json:"potential"`
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
	Link      string  `json:"link"`
}

// Renderer writes the published site into a directory.
type Renderer struct {
	dir     string
	weights scoring.Weights
}

// NewRenderer creates a Renderer targeting dir.
func NewRenderer(dir string, weights scoring.Weights) *Renderer {
	return &Renderer{dir: dir, weights: weights}
}

// Write renders both views: clean (relevance-passing) and all records.
func (r *Renderer) Write(clean, all []store.Record) error {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create docs directory: %w", err)
	}

	cleanRows := toRows(clean)
	allRows := toRows(all)

	if err := r.writeJSON("hypotheses.json", cleanRows); err != nil {
		return err
	}
	if err := r.writeJSON("hypotheses_all.json", allRows); err != nil {
		return err
	}
	return r.writeIndex(cleanRows, allRows)
}

func (r *Renderer) writeJSON(name string, rows []Row) error {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(r.dir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (r *Renderer) writeIndex(clean, all []Row) error {
	f, err := os.Create(filepath.Join(r.dir, "index.html"))
	if err != nil {
		return fmt.Errorf("failed to create index.html: %w", err)
	}
	defer f.Close()

	data := struct {
		Weights scoring.Weights
		Clean   []Row
		All     []Row
	}{r.weights, clean, all}

	if err := indexTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render index.html: %w", err)
	}
	return nil
}

func toRows(records []store.Record) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, Row{
			Date:      rec.Date,
			Section:   rec.Section,
			Source:    rec.Source,
			Category:  rec.Category,
			Idea:      rec.Idea,
			Ease:      rec.Ease,
			Potential: rec.Potential,
			Score:     rec.Score,
			Rationale: rec.Rationale,
			Link:      rec.Link,
		})
	}
	return rows
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en"><head>
<meta charset="utf-8"/><meta name="viewport" content="width=device-width,initial-scale=1"/>
<title>Hypotheses — priorities</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:24px}
table{border-collapse:collapse;width:100%}
th,td{border:1px solid #ddd;padding:8px;vertical-align:top}
th{cursor:pointer;background:#f7f7f7}
tr:nth-child(even){background:#fafafa}
.pill{padding:2px 8px;border-radius:12px;background:#eee}
.controls{margin:12px 0;display:flex;gap:8px;flex-wrap:wrap}
button{padding:6px 10px;border:1px solid #ddd;background:#fff;border-radius:8px;cursor:pointer}
button.active{background:#efefef}
.note{margin:8px 0;color:#666}
</style></head><body>
<h1>Top hypotheses (by score)</h1>
<p class="note">Score = {{.Weights.Potential}}×Potential + {{.Weights.Ease}}×Ease. Toggle between relevant and all records.</p>

<div class="controls">
  <button id="viewRel" class="active">Relevant</button>
  <button id="viewAll">All</button>
  <button data-filter="all" class="active">All</button>
  <button data-filter="Ads">Ads</button>
  <button data-filter="Funnel">Funnel</button>
  <button data-filter="Product">Product</button>
</div>

<table id="t"><thead><tr>
<th data-k="date">Date</th><th data-k="section">Section</th><th data-k="source">Source</th>
<th data-k="category">Category</th><th data-k="idea">Hypothesis</th>
<th data-k="ease">Ease</th><th data-k="potential">Potential</th><th data-k="score">Score</th>
<th data-k="rationale">Why</th><th data-k="link">Link</th>
</tr></thead><tbody></tbody></table>

<script>window.__REL__={{.Clean}};window.__ALL__={{.All}};</script>
<script>
let data=[], all=[], key='score', dir=-1, filter='all', useAll=false;
async function tryFetch(u){ try{ const r=await fetch(u+'?ts='+Date.now()); if(!r.ok) throw 0; return await r.json(); }catch{return null;}}
async function load(){
  const a=await tryFetch('hypotheses.json'); const b=await tryFetch('hypotheses_all.json');
  data=Array.isArray(a)?a:Array.isArray(window.__REL__)?window.__REL__:[];
  all =Array.isArray(b)?b:Array.isArray(window.__ALL__)?window.__ALL__:[];
  if(!data.length && all.length){ useAll=true; document.getElementById('viewAll').classList.add('active'); document.getElementById('viewRel').classList.remove('active'); }
  render();
}
function sortFn(a,b){ const av=a[key], bv=b[key]; if(av===bv) return 0; return (av>bv?1:-1)*dir; }
function render(){
  const tb=document.querySelector('tbody'); tb.innerHTML='';
  const src=useAll?all:data;
  const rows=[...src].filter(x=> filter==='all'?true:(x.category===filter)).sort(sortFn);
  for(const x of rows){
    const tr=document.createElement('tr');
    const cells=[x.date||'',x.section||'',x.source||'',x.category||'',x.idea||''];
    for(const c of cells){ const td=document.createElement('td'); td.textContent=c; tr.appendChild(td); }
    for(const n of [x.ease,x.potential,x.score]){
      const td=document.createElement('td'); const span=document.createElement('span');
      span.className='pill'; span.textContent=Number.isFinite(n)?(n===x.score?n.toFixed(1):n):'';
      td.appendChild(span); tr.appendChild(td);
    }
    const why=document.createElement('td'); why.textContent=x.rationale||''; tr.appendChild(why);
    const lk=document.createElement('td');
    if(x.link){ const a=document.createElement('a'); a.target='_blank'; a.href=x.link; a.textContent='link'; lk.appendChild(a); }
    tr.appendChild(lk);
    tb.appendChild(tr);
  }
}
document.querySelectorAll('th').forEach(th=> th.onclick=()=>{ key=th.dataset.k; dir*=-1; render(); });
document.querySelectorAll('.controls button[data-filter]').forEach(b=> b.onclick=()=>{ document.querySelectorAll('.controls button[data-filter]').forEach(x=>x.classList.remove('active')); b.classList.add('active'); filter=b.dataset.filter; render(); });
document.getElementById('viewRel').onclick=()=>{ useAll=false; document.getElementById('viewRel').classList.add('active'); document.getElementById('viewAll').classList.remove('active'); render(); };
document.getElementById('viewAll').onclick=()=>{ useAll=true; document.getElementById('viewAll').classList.add('active'); document.getElementById('viewRel').classList.remove('active'); render(); };
load();
</script></body></html>
`))
