package portal

// indexPage is the whole UI. Everything is inlined: the node serves this
// from an isolated AP with no internet, so there is nowhere to load
// assets from.
const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>SensDot Setup</title>
<style>
  body { font-family: system-ui, sans-serif; max-width: 32rem; margin: 2rem auto; padding: 0 1rem; color: #222; }
  h1 { font-size: 1.4rem; }
  fieldset { border: 1px solid #ccc; border-radius: 6px; margin-bottom: 1rem; }
  label { display: block; margin-top: 0.6rem; font-size: 0.9rem; }
  input, select { width: 100%; padding: 0.4rem; margin-top: 0.2rem; box-sizing: border-box; }
  button { margin-top: 1rem; padding: 0.6rem 1.4rem; font-size: 1rem; }
  .msg { margin-top: 1rem; padding: 0.6rem; border-radius: 4px; display: none; }
  .msg.ok { background: #e6f4e6; color: #205020; display: block; }
  .msg.err { background: #f8e4e4; color: #7a1f1f; display: block; }
  .msg.warn { background: #fdf3d7; color: #6b5214; display: block; }
</style>
</head>
<body>
<h1>SensDot Setup</h1>
<p id="device"></p>
<form id="cfg">
  <fieldset>
    <legend>WiFi</legend>
    <label>Network
      <select id="ssid-list" hidden></select>
      <input name="wifi_ssid" id="ssid" required maxlength="32">
    </label>
    <button type="button" id="rescan">Scan for networks</button>
    <label>Password <input name="wifi_password" id="wifi_password" type="password"></label>
  </fieldset>
  <fieldset>
    <legend>MQTT</legend>
    <label>Broker host <input name="broker" id="broker" required></label>
    <label>Port <input name="port" id="port" type="number" value="1883" min="1" max="65535"></label>
    <label>Username <input name="username" id="username"></label>
    <label>Password <input name="mqtt_password" id="mqtt_password" type="password"></label>
    <label>Topic prefix <input name="topic_prefix" id="topic_prefix" placeholder="sensdot/&lt;device-id&gt;"></label>
  </fieldset>
  <fieldset>
    <legend>Cycle</legend>
    <label>Sleep interval (seconds) <input id="sleep_s" type="number" value="60" min="10" max="3600"></label>
    <label>Sensor interval (seconds) <input id="sensor_s" type="number" value="30" min="5" max="300"></label>
    <label><input id="ha" type="checkbox" style="width:auto"> Home Assistant discovery</label>
    <label><input id="debug" type="checkbox" style="width:auto"> Debug mode</label>
  </fieldset>
  <button type="submit">Save and restart</button>
</form>
<div id="msg" class="msg"></div>
<script>
const msg = document.getElementById('msg');
function show(kind, text) { msg.className = 'msg ' + kind; msg.textContent = text; }

fetch('/api/status').then(r => r.json()).then(s => {
  document.getElementById('device').textContent = 'Device ' + s.device_id + ' · firmware ' + s.version;
});

const sock = new WebSocket('ws://' + location.host + '/events');
sock.onmessage = e => {
  const ev = JSON.parse(e.data);
  if (ev.event === 'saved') show('ok', 'Configuration saved. The device is restarting; you can close this page.');
};

document.getElementById('rescan').onclick = async () => {
  show('warn', 'Scanning…');
  try {
    const r = await fetch('/scan');
    const body = await r.json();
    if (!r.ok) { show('err', (body.errors || ['scan failed']).join('; ')); return; }
    const list = document.getElementById('ssid-list');
    list.innerHTML = '';
    for (const n of body.networks) {
      const o = document.createElement('option');
      o.value = n.ssid;
      o.textContent = n.ssid + ' (' + n.signal + '%' + (n.security ? ', ' + n.security : '') + ')';
      list.appendChild(o);
    }
    list.hidden = false;
    list.onchange = () => { document.getElementById('ssid').value = list.value; };
    show('ok', body.networks.length + ' networks found');
  } catch (err) {
    show('err', 'Scan failed: ' + err);
  }
};

document.getElementById('cfg').onsubmit = async e => {
  e.preventDefault();
  const cfg = {
    wifi: {
      ssid: document.getElementById('ssid').value,
      password: document.getElementById('wifi_password').value
    },
    mqtt: {
      broker: document.getElementById('broker').value,
      port: Number(document.getElementById('port').value),
      username: document.getElementById('username').value,
      password: document.getElementById('mqtt_password').value,
      topic_prefix: document.getElementById('topic_prefix').value
    },
    sleep_interval_s: Number(document.getElementById('sleep_s').value),
    sensor_interval_s: Number(document.getElementById('sensor_s').value),
    ha_discovery: document.getElementById('ha').checked,
    debug_mode: document.getElementById('debug').checked
  };
  const r = await fetch('/save', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify(cfg)
  });
  const body = await r.json();
  if (r.ok) {
    let text = 'Saved. The device will restart shortly.';
    if (body.warnings && body.warnings.length) text += ' ' + body.warnings.join('; ');
    show('ok', text);
  } else {
    show('err', (body.errors || ['save failed']).join('; '));
  }
};
</script>
</body>
</html>
`
