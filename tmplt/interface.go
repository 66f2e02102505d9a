package tmplt

// HtmlPage shows live frame statistics received from /ws.
var HtmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>{{.Title}}</title>
	<style>
		body {
			font-family: monospace;
			background: white;
			color: black;
			margin: 40px;
			line-height: 1.6;
		}
		table td {
			padding: 2px 12px 2px 0;
		}
		#status {
			margin: 20px 0;
			padding: 10px;
			border: 1px solid black;
		}
	</style>
</head>
<body>
	<h1>{{.Title}}</h1>

	<table>
		<tr><td>codec</td><td>{{.Codec}}</td></tr>
		<tr><td>sample rate</td><td>{{.SampleRate}} Hz</td></tr>
		<tr><td>frames</td><td id="frames">0</td></tr>
		<tr><td>bytes</td><td id="bytes">0</td></tr>
		<tr><td>last pts</td><td id="pts">-</td></tr>
		<tr><td>position</td><td id="position">0.000 s</td></tr>
	</table>

	<div id="status">Status: Ready</div>

	<script>
		const sampleRate = {{.SampleRate}};
		const status = document.getElementById('status');
		let frames = 0;
		let bytes = 0;

		function connectWebSocket() {
			const protocol = window.location.protocol === 'https:' ? 'wss:' : 'ws:';
			const ws = new WebSocket(protocol + '//' + window.location.host + '/ws');
			ws.binaryType = 'arraybuffer';

			ws.onopen = () => {
				status.textContent = 'Status: Connected';
			};

			ws.onmessage = (event) => {
				const view = new DataView(event.data);
				if (view.byteLength < 8) {
					return;
				}
				const pts = view.getBigUint64(0);
				frames++;
				bytes += view.byteLength - 8;
				document.getElementById('frames').textContent = frames;
				document.getElementById('bytes').textContent = bytes;
				document.getElementById('pts').textContent = pts.toString();
				document.getElementById('position').textContent = (Number(pts) / sampleRate).toFixed(3) + ' s';
			};

			ws.onclose = (event) => {
				status.textContent = 'Status: Disconnected ' + (event.reason || '');
			};

			ws.onerror = () => {
				status.textContent = 'Status: Error';
			};
		}

		connectWebSocket();
	</script>
</body>
</html>`

// PageData fills HtmlPage.
type PageData struct {
	Title      string
	Codec      string
	SampleRate uint32
}
