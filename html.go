package main

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

// Simple HTML client for quick testing; the real frontend renders the same
// snapshot with drag-and-drop tier boards.
const indexHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Tiernight</title>
<link rel="stylesheet" href="/assets/party/app.css">
</head>
<body>
<h1>Tiernight</h1>
<div id="status">Connecting…</div>
<div id="phase"></div>
<div id="prompt"></div>
<ul id="teams"></ul>
<div id="admin" hidden>
  <button data-action="start_game">Start</button>
  <button data-action="next_round">Next round</button>
  <button data-action="next_one">Next</button>
  <button data-action="calculate_round">Recalculate</button>
  <button data-action="reset_game">Reset</button>
</div>
<ol id="history"></ol>
<script src="/assets/party/app.js"></script>
</body>
</html>
`

const partyCSS = `body { font-family: system-ui, -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 2rem; }
h1 { margin-bottom: 0.5rem; }
#status, #phase, #prompt { margin-bottom: 0.5rem; font-size: 0.9rem; }
#teams { margin-top: 1rem; padding: 0; list-style: none; }
#teams li { padding: 0.25rem 0; border-bottom: 1px solid #ddd; }
#teams li.offline { color: #999; }
#admin button { margin-right: 0.5rem; }
`

const partyJS = `(function() {
  const statusEl = document.getElementById('status');
  const phaseEl = document.getElementById('phase');
  const promptEl = document.getElementById('prompt');
  const teamsEl = document.getElementById('teams');
  const adminEl = document.getElementById('admin');
  const historyEl = document.getElementById('history');

  const proto = (location.protocol === 'https:') ? 'wss://' : 'ws://';
  const wsPath = location.pathname.replace(/\/$/, '') + '/ws';
  const ws = new WebSocket(proto + location.host + wsPath);

  ws.onopen = function() {
    statusEl.textContent = 'Connected.';
    const name = prompt('Enter your team name:') || '';
    if (name) {
      ws.send(JSON.stringify({ type: 'join', name: name }));
    }
  };

  adminEl.addEventListener('click', function(e) {
    const action = e.target.dataset && e.target.dataset.action;
    if (action) {
      ws.send(JSON.stringify({ type: 'admin', action: action }));
    }
  });

  function render(state) {
    phaseEl.textContent = state.phase + ' / ' + state.currentGame;

    if (state.round) {
      promptEl.textContent = state.round.title;
    } else if (state.currentQuiz) {
      promptEl.textContent = (state.currentQuizIndex + 1) + '/' + state.totalQuizCount +
        ': ' + state.currentQuiz.question;
    } else {
      promptEl.textContent = '';
    }

    teamsEl.innerHTML = '';
    state.teams.forEach(function(t) {
      const li = document.createElement('li');
      li.textContent = t.name + ' — ' + t.score.toFixed(1);
      if (!t.connected) li.classList.add('offline');
      teamsEl.appendChild(li);
    });

    historyEl.innerHTML = '';
    (state.quizHistory || []).forEach(function(h) {
      const li = document.createElement('li');
      li.textContent = h.team + ': ' + h.points + ' (' + h.question + ')';
      historyEl.appendChild(li);
    });
  }

  ws.onmessage = function(event) {
    try {
      const msg = JSON.parse(event.data);

      if (msg.type === 'game_state') {
        render(msg.state);
        return;
      }

      if (msg.type === 'joined') {
        adminEl.hidden = !msg.is_admin;
        return;
      }

      if (msg.type === 'error') {
        statusEl.textContent = msg.message;
        return;
      }
    } catch (e) {
      console.error('bad message', e);
    }
  };

  ws.onclose = function() {
    statusEl.textContent = 'Disconnected.';
  };

  ws.onerror = function() {
    statusEl.textContent = 'Error with WebSocket.';
  };
})();
`

func getIndexHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		_, _ = w.Write([]byte(indexHTML))
	}
}

func getCssHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write([]byte(partyCSS))
	}
}

func getJsHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write([]byte(partyJS))
	}
}
