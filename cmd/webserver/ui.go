package main

import (
	"io"
	"net/http"
)

// handleIndex 提供内嵌的单页编辑界面
func handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, indexHTML)
}

// 编辑界面：左侧项目列表，右侧段落编辑器。
// 所有编辑只在会话内存里，点保存才写盘。
const indexHTML = `<!DOCTYPE html>
<html lang="zh">
<head>
<meta charset="utf-8">
<title>翻译编辑器</title>
<style>
  body { margin: 0; font-family: sans-serif; display: flex; height: 100vh; }
  #sidebar { width: 220px; border-right: 1px solid #ddd; overflow-y: auto; padding: 10px; }
  #sidebar h3 { margin-top: 0; }
  #sidebar .proj { padding: 6px 8px; cursor: pointer; border-radius: 4px; }
  #sidebar .proj:hover { background: #f0f0f0; }
  #sidebar .proj.active { background: #e0ecff; }
  #main { flex: 1; overflow-y: auto; padding: 16px; }
  .seg { border: 1px solid #ddd; border-radius: 6px; padding: 10px; margin-bottom: 10px; }
  .seg.flagged { border-color: #d33; }
  .seg .time { color: #666; font-size: 12px; margin-bottom: 4px; }
  .seg .time .warn { color: #d33; font-weight: bold; }
  .seg .orig { color: #999; font-size: 13px; margin-bottom: 6px; white-space: pre-wrap; }
  .seg textarea { width: 100%; box-sizing: border-box; min-height: 48px; font: inherit; }
  .seg .btns { margin-top: 6px; }
  button { margin-right: 6px; }
  #toolbar { position: sticky; top: 0; background: #fff; padding-bottom: 10px; }
  #toast { position: fixed; bottom: 20px; right: 20px; padding: 10px 16px;
           border-radius: 4px; color: #fff; display: none; }
  #toast.ok { background: #2a8; } #toast.err { background: #d33; } #toast.warn { background: #e90; }
</style>
</head>
<body>
<div id="sidebar"><h3>项目</h3><div id="projects"></div></div>
<div id="main">
  <div id="toolbar">
    <button onclick="save()">保存</button>
    <button onclick="openProject(current)">重新加载</button>
    <a id="srt" href="#">导出SRT</a>
    <a id="txt" href="#">导出双语文本</a>
  </div>
  <div id="segments"><p>从左侧选择一个项目开始编辑。</p></div>
</div>
<div id="toast"></div>
<script>
var current = null;

function toast(msg, kind) {
  var el = document.getElementById('toast');
  el.textContent = msg;
  el.className = kind || 'ok';
  el.style.display = 'block';
  setTimeout(function() { el.style.display = 'none'; }, 2500);
}

async function api(path, opts) {
  var resp = await fetch(path, opts);
  var body = await resp.json();
  if (!resp.ok) throw new Error(body.msg || ('HTTP ' + resp.status));
  return body;
}

async function loadProjects() {
  try {
    var list = await api('/api/files');
    var box = document.getElementById('projects');
    box.innerHTML = '';
    list.forEach(function(p) {
      var div = document.createElement('div');
      div.className = 'proj' + (p.id === current ? ' active' : '');
      div.textContent = p.name;
      div.onclick = function() { openProject(p.id); };
      box.appendChild(div);
    });
  } catch (e) {
    console.error(e);
    toast('加载项目列表失败: ' + e.message, 'err');
  }
}

async function openProject(id) {
  if (!id) return;
  try {
    var view = await api('/api/session/' + id + '/open', {method: 'POST'});
    current = id;
    document.getElementById('srt').href = '/api/file/' + id + '/export?format=srt';
    document.getElementById('txt').href = '/api/file/' + id + '/export?format=txt';
    render(view);
    loadProjects();
  } catch (e) {
    console.error(e);
    toast('打开项目失败: ' + e.message, 'err');
  }
}

function render(view) {
  var box = document.getElementById('segments');
  box.innerHTML = '';
  view.segments.forEach(function(seg, i) {
    var div = document.createElement('div');
    div.className = 'seg' + (seg.time_flagged ? ' flagged' : '');
    var warn = seg.time_flagged ? ' <span class="warn">时间异常 start > end</span>' : '';
    div.innerHTML =
      '<div class="time">#' + i + ' ' + seg.time_label + warn + '</div>' +
      '<div class="orig"></div>';
    div.querySelector('.orig').textContent = seg.original_text;
    var ta = document.createElement('textarea');
    ta.value = seg.text;
    ta.onchange = function() { op('text', {index: i, text: ta.value}); };
    div.appendChild(ta);
    var btns = document.createElement('div');
    btns.className = 'btns';
    if (i < view.segments.length - 1) {
      btns.appendChild(btn('合并下一段', function() { op('merge', {index: i}); }));
    }
    btns.appendChild(btn('删除', function() { op('delete', {index: i}); }));
    btns.appendChild(btn('重置', function() { op('reset', {index: i}); }));
    div.appendChild(btns);
    box.appendChild(div);
  });
}

function btn(label, fn) {
  var b = document.createElement('button');
  b.textContent = label;
  b.onclick = fn;
  return b;
}

async function op(name, payload) {
  if (!current) return;
  try {
    var view = await api('/api/session/' + current + '/' + name, {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify(payload)
    });
    render(view);
  } catch (e) {
    console.error(e);
    toast('操作失败: ' + e.message, 'err');
  }
}

async function save() {
  if (!current) { toast('还没有打开项目', 'warn'); return; }
  try {
    await api('/api/session/' + current + '/save', {method: 'POST'});
    toast('已保存');
  } catch (e) {
    console.error(e);
    toast('保存失败: ' + e.message, 'err');
  }
}

loadProjects();
</script>
</body>
</html>
`
